package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	Income  FlowKind = "income"
	Expense FlowKind = "expense"
)

const (
	InterestMonthly InterestType = "Monthly"
	InterestDaily   InterestType = "Daily"
)

const (
	MinPaymentFixed      MinPaymentType = "amount"
	MinPaymentPercentage MinPaymentType = "percentage"
)

// DefaultPaymentDueDay is used when an account does not specify one.
const DefaultPaymentDueDay = 5

type (
	Frequency      string
	FlowKind       string
	InterestType   string
	MinPaymentType string

	// RecurrenceSpec drives the schedule generator. A null Amount or a zero
	// StartDate means the spec is incomplete.
	RecurrenceSpec struct {
		Amount      decimal.NullDecimal
		StartDate   Date
		IsRecurring bool
		Frequency   Frequency
		EndDate     Date // optional
	}

	// ScheduleEntry is one dated occurrence of an income or expense.
	ScheduleEntry struct {
		ID      int64
		FlowID  int64
		Date    Date
		Amount  decimal.Decimal
		Settled bool
	}

	// CashFlow is an income source or a scheduled expense together with its
	// generated entries.
	CashFlow struct {
		ID      int64
		Kind    FlowKind
		Name    string
		Spec    RecurrenceSpec
		Entries []ScheduleEntry
	}

	// DebtAccount is a revolving debt ("bank"). TotalDebt is the balance after
	// every applied payment.
	DebtAccount struct {
		ID               int64
		Name             string
		DebtType         string
		TotalDebt        decimal.Decimal
		InterestRate     decimal.Decimal // percent per period
		InterestType     InterestType
		MinPaymentAmount decimal.Decimal
		MinPaymentType   MinPaymentType
		PaymentDueDay    int
		IsActive         bool
		CustomPayments   map[MonthKey]decimal.Decimal
		PaidMonths       []MonthKey
		Version          int64
	}

	// ProjectionRow is one simulated month of a payoff plan.
	ProjectionRow struct {
		MonthIndex      int
		MonthKey        MonthKey
		Date            Date
		StartingDebt    decimal.Decimal
		InterestAccrued decimal.Decimal
		PaymentApplied  decimal.Decimal
		RemainingDebt   decimal.Decimal
		IsCustomPayment bool
		IsPaid          bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrAlreadyPaid      = errors.New("month already paid")
)

func (f Frequency) IsValid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (k FlowKind) IsValid() bool {
	return k == Income || k == Expense
}

func (t InterestType) IsValid() bool {
	return t == InterestMonthly || t == InterestDaily
}

func (t MinPaymentType) IsValid() bool {
	return t == MinPaymentFixed || t == MinPaymentPercentage
}

// NewAmount wraps a decimal as a present RecurrenceSpec amount.
func NewAmount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func (s RecurrenceSpec) Validate() error {
	if !s.Amount.Valid {
		return &ValidationError{Field: "amount", Message: "amount is required"}
	}
	if !s.Amount.Decimal.IsPositive() {
		return &ValidationError{Field: "amount", Message: ErrInvalidAmount.Error(), Err: ErrInvalidAmount}
	}
	if err := s.StartDate.Validate(); err != nil {
		return &ValidationError{Field: "startDate", Message: err.Error(), Err: err}
	}
	if s.IsRecurring && !s.Frequency.IsValid() {
		return &ValidationError{Field: "frequency", Message: ErrInvalidFrequency.Error(), Err: ErrInvalidFrequency}
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(s.StartDate.Time) {
		return &ValidationError{Field: "endDate", Message: "end date must not be before start date"}
	}
	return nil
}

func (e ScheduleEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Message: err.Error(), Err: err}
	}
	if !e.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: ErrInvalidAmount.Error(), Err: ErrInvalidAmount}
	}
	return nil
}

func (f CashFlow) Validate() error {
	if !f.Kind.IsValid() {
		return &ValidationError{Field: "kind", Message: "kind must be income or expense"}
	}
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Message: ErrEmptyName.Error(), Err: ErrEmptyName}
	}
	if len(f.Name) > 200 {
		return &ValidationError{Field: "name", Message: "name too long (max 200 characters)"}
	}
	if err := f.Spec.Validate(); err != nil {
		return err
	}
	for _, e := range f.Entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (a DebtAccount) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: ErrEmptyName.Error(), Err: ErrEmptyName}
	}
	if a.TotalDebt.IsNegative() {
		return &ValidationError{Field: "totalDebt", Message: "total debt cannot be negative"}
	}
	if a.InterestRate.IsNegative() {
		return &ValidationError{Field: "interestRate", Message: "interest rate cannot be negative"}
	}
	if !a.InterestType.IsValid() {
		return &ValidationError{Field: "interestType", Message: "interest type must be Daily or Monthly"}
	}
	if !a.MinPaymentAmount.IsPositive() {
		return &ValidationError{Field: "minPaymentAmount", Message: "minimum payment must be positive"}
	}
	if !a.MinPaymentType.IsValid() {
		return &ValidationError{Field: "minPaymentType", Message: "minimum payment type must be amount or percentage"}
	}
	if a.MinPaymentType == MinPaymentPercentage && a.MinPaymentAmount.GreaterThan(hundred) {
		return &ValidationError{Field: "minPaymentAmount", Message: "percentage cannot exceed 100"}
	}
	if a.PaymentDueDay < 1 || a.PaymentDueDay > 31 {
		return &ValidationError{Field: "paymentDueDay", Message: "payment due day must be between 1 and 31"}
	}
	for key, amount := range a.CustomPayments {
		if err := key.Validate(); err != nil {
			return &ValidationError{Field: "customPayments", Message: err.Error(), Err: err}
		}
		if amount.IsNegative() {
			return &ValidationError{Field: "customPayments", Message: "custom payment for " + string(key) + " cannot be negative"}
		}
	}
	for _, key := range a.PaidMonths {
		if err := key.Validate(); err != nil {
			return &ValidationError{Field: "paidMonths", Message: err.Error(), Err: err}
		}
	}
	return nil
}

// IsPaid reports whether the month has already been settled.
func (a DebtAccount) IsPaid(key MonthKey) bool {
	for _, k := range a.PaidMonths {
		if k == key {
			return true
		}
	}
	return false
}

// BaseMinimumPayment is the minimum due against the given balance, ignoring
// custom overrides.
func (a DebtAccount) BaseMinimumPayment(balance decimal.Decimal) decimal.Decimal {
	if a.MinPaymentType == MinPaymentPercentage {
		return Percent(balance, a.MinPaymentAmount)
	}
	return a.MinPaymentAmount
}

// Clone returns a deep copy so callers can derive a new snapshot without
// touching shared maps or slices.
func (a DebtAccount) Clone() DebtAccount {
	out := a
	if a.CustomPayments != nil {
		out.CustomPayments = make(map[MonthKey]decimal.Decimal, len(a.CustomPayments))
		for k, v := range a.CustomPayments {
			out.CustomPayments[k] = v
		}
	}
	if a.PaidMonths != nil {
		out.PaidMonths = append([]MonthKey(nil), a.PaidMonths...)
	}
	return out
}

// WithPaidMonth returns a copy with key appended to PaidMonths unless it is
// already present.
func (a DebtAccount) WithPaidMonth(key MonthKey) DebtAccount {
	out := a.Clone()
	if !out.IsPaid(key) {
		out.PaidMonths = append(out.PaidMonths, key)
	}
	return out
}

// Normalize fills defaults for optional fields.
func (a *DebtAccount) Normalize() {
	if a.PaymentDueDay == 0 {
		a.PaymentDueDay = DefaultPaymentDueDay
	}
	if a.InterestType == "" {
		a.InterestType = InterestMonthly
	}
	if a.MinPaymentType == "" {
		a.MinPaymentType = MinPaymentFixed
	}
}

// NowFunc is the clock used by services; tests replace it.
type NowFunc func() time.Time

// EntryView is a schedule entry joined with its parent flow.
type EntryView struct {
	ScheduleEntry
	Kind     FlowKind
	FlowName string
}

// PaymentKind distinguishes scheduled month payments from extra payments.
type PaymentKind string

const (
	PaymentScheduled PaymentKind = "scheduled"
	PaymentExtra     PaymentKind = "extra"
)

// PaymentEvent records a payment applied to a debt account. It is published
// after the account snapshot has been persisted.
type PaymentEvent struct {
	AccountID       int64
	AccountName     string
	Kind            PaymentKind
	Month           MonthKey // empty for extra payments
	Amount          decimal.Decimal
	Interest        decimal.Decimal
	Principal       decimal.Decimal
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	AppliedAt       time.Time
}

package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validAccount() DebtAccount {
	return DebtAccount{
		Name:             "Card",
		DebtType:         "credit_card",
		TotalDebt:        decimal.NewFromInt(1000),
		InterestRate:     decimal.NewFromInt(5),
		InterestType:     InterestMonthly,
		MinPaymentAmount: decimal.NewFromInt(50),
		MinPaymentType:   MinPaymentFixed,
		PaymentDueDay:    5,
		IsActive:         true,
	}
}

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecurrenceSpecValidate(t *testing.T) {
	good := RecurrenceSpec{
		Amount:      NewAmount(decimal.NewFromInt(100)),
		StartDate:   NewDate(2025, 1, 1),
		IsRecurring: true,
		Frequency:   Monthly,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name  string
		mod   func(*RecurrenceSpec)
		field string
	}{
		{"missing amount", func(s *RecurrenceSpec) { s.Amount = decimal.NullDecimal{} }, "amount"},
		{"zero amount", func(s *RecurrenceSpec) { s.Amount = NewAmount(decimal.Zero) }, "amount"},
		{"missing start", func(s *RecurrenceSpec) { s.StartDate = Date{} }, "startDate"},
		{"bad frequency", func(s *RecurrenceSpec) { s.Frequency = "daily" }, "frequency"},
		{"end before start", func(s *RecurrenceSpec) { s.EndDate = NewDate(2024, 12, 1) }, "endDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := good
			tt.mod(&spec)
			err := spec.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestNonRecurringSpecIgnoresFrequency(t *testing.T) {
	spec := RecurrenceSpec{
		Amount:    NewAmount(decimal.NewFromInt(10)),
		StartDate: NewDate(2025, 1, 1),
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestDebtAccountValidate(t *testing.T) {
	if err := validAccount().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name  string
		mod   func(*DebtAccount)
		field string
	}{
		{"empty name", func(a *DebtAccount) { a.Name = " " }, "name"},
		{"negative debt", func(a *DebtAccount) { a.TotalDebt = decimal.NewFromInt(-1) }, "totalDebt"},
		{"negative rate", func(a *DebtAccount) { a.InterestRate = decimal.NewFromInt(-1) }, "interestRate"},
		{"bad interest type", func(a *DebtAccount) { a.InterestType = "Yearly" }, "interestType"},
		{"zero minimum", func(a *DebtAccount) { a.MinPaymentAmount = decimal.Zero }, "minPaymentAmount"},
		{"bad minimum type", func(a *DebtAccount) { a.MinPaymentType = "fixed" }, "minPaymentType"},
		{"percentage over 100", func(a *DebtAccount) {
			a.MinPaymentType = MinPaymentPercentage
			a.MinPaymentAmount = decimal.NewFromInt(101)
		}, "minPaymentAmount"},
		{"due day", func(a *DebtAccount) { a.PaymentDueDay = 32 }, "paymentDueDay"},
		{"bad custom key", func(a *DebtAccount) {
			a.CustomPayments = map[MonthKey]decimal.Decimal{"2025-13": decimal.NewFromInt(1)}
		}, "customPayments"},
		{"negative custom", func(a *DebtAccount) {
			a.CustomPayments = map[MonthKey]decimal.Decimal{"2025-01": decimal.NewFromInt(-1)}
		}, "customPayments"},
		{"bad paid month", func(a *DebtAccount) { a.PaidMonths = []MonthKey{"2025/01"} }, "paidMonths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAccount()
			tt.mod(&a)
			var ve *ValidationError
			if err := a.Validate(); !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected ValidationError on %q, got %v", tt.field, err)
			}
		})
	}
}

func TestBaseMinimumPayment(t *testing.T) {
	a := validAccount()
	if got := a.BaseMinimumPayment(decimal.NewFromInt(400)); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("fixed minimum = %s, want 50", got)
	}
	a.MinPaymentType = MinPaymentPercentage
	a.MinPaymentAmount = decimal.NewFromInt(3)
	if got := a.BaseMinimumPayment(decimal.NewFromInt(400)); !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("percentage minimum = %s, want 12", got)
	}
}

func TestWithPaidMonthIsIdempotentAndCopies(t *testing.T) {
	a := validAccount()
	a.PaidMonths = []MonthKey{"2025-01"}

	b := a.WithPaidMonth("2025-02")
	c := b.WithPaidMonth("2025-02")

	if len(a.PaidMonths) != 1 {
		t.Fatalf("original mutated: %v", a.PaidMonths)
	}
	if len(b.PaidMonths) != 2 || len(c.PaidMonths) != 2 {
		t.Fatalf("unexpected paid months b=%v c=%v", b.PaidMonths, c.PaidMonths)
	}
	if !c.IsPaid("2025-02") || c.IsPaid("2025-03") {
		t.Fatalf("IsPaid mismatch: %v", c.PaidMonths)
	}
}

func TestCloneDetachesCustomPayments(t *testing.T) {
	a := validAccount()
	a.CustomPayments = map[MonthKey]decimal.Decimal{"2025-01": decimal.NewFromInt(10)}
	b := a.Clone()
	b.CustomPayments["2025-01"] = decimal.NewFromInt(99)
	if !a.CustomPayments["2025-01"].Equal(decimal.NewFromInt(10)) {
		t.Fatalf("clone shares map with original")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	var a DebtAccount
	a.Normalize()
	if a.PaymentDueDay != DefaultPaymentDueDay || a.InterestType != InterestMonthly || a.MinPaymentType != MinPaymentFixed {
		t.Fatalf("unexpected defaults: %+v", a)
	}
}

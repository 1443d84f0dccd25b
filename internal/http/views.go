package http

import (
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/projection"
	"fintrack/internal/report"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
)

// View models round every amount to cents, except bank snapshots, which
// clients send back on update and so carry the stored precision.

type entryView struct {
	ID       int64           `json:"id"`
	FlowID   int64           `json:"flowId"`
	FlowName string          `json:"flowName,omitempty"`
	Date     core.Date       `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Settled  bool            `json:"settled"`
}

type flowView struct {
	ID          int64            `json:"id"`
	Kind        core.FlowKind    `json:"kind"`
	Name        string           `json:"name"`
	Amount      *decimal.Decimal `json:"amount"`
	StartDate   core.Date        `json:"startDate"`
	IsRecurring bool             `json:"isRecurring"`
	Frequency   core.Frequency   `json:"frequency,omitempty"`
	EndDate     core.Date        `json:"endDate"`
	Entries     []entryView      `json:"entries"`
}

type bankView struct {
	ID               int64                             `json:"id"`
	Name             string                            `json:"name"`
	DebtType         string                            `json:"debtType"`
	TotalDebt        decimal.Decimal                   `json:"totalDebt"`
	InterestRate     decimal.Decimal                   `json:"interestRate"`
	InterestType     core.InterestType                 `json:"interestType"`
	MinPaymentAmount decimal.Decimal                   `json:"minPaymentAmount"`
	MinPaymentType   core.MinPaymentType               `json:"minPaymentType"`
	PaymentDueDay    int                               `json:"paymentDueDay"`
	IsActive         bool                              `json:"isActive"`
	CustomPayments   map[core.MonthKey]decimal.Decimal `json:"customPayments"`
	PaidMonths       []core.MonthKey                   `json:"paidMonths"`
	Version          int64                             `json:"version"`
}

type planRowView struct {
	MonthIndex      int             `json:"monthIndex"`
	Month           core.MonthKey   `json:"month"`
	Date            core.Date       `json:"date"`
	StartingDebt    decimal.Decimal `json:"startingDebt"`
	Interest        decimal.Decimal `json:"interest"`
	Payment         decimal.Decimal `json:"payment"`
	RemainingDebt   decimal.Decimal `json:"remainingDebt"`
	IsCustomPayment bool            `json:"isCustomPayment"`
	IsPaid          bool            `json:"isPaid"`
}

type planView struct {
	BankID        int64           `json:"bankId"`
	Rows          []planRowView   `json:"rows"`
	PaidOff       bool            `json:"paidOff"`
	Truncated     bool            `json:"truncated"`
	Warning       string          `json:"warning,omitempty"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
}

type paymentView struct {
	Month           core.MonthKey   `json:"month,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Interest        decimal.Decimal `json:"interest"`
	Principal       decimal.Decimal `json:"principal"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
}

type paymentResult struct {
	Bank    bankView    `json:"bank"`
	Payment paymentView `json:"payment"`
}

type summaryView struct {
	Month           core.MonthKey   `json:"month"`
	ExpectedIncome  decimal.Decimal `json:"expectedIncome"`
	ReceivedIncome  decimal.Decimal `json:"receivedIncome"`
	PlannedExpenses decimal.Decimal `json:"plannedExpenses"`
	PaidExpenses    decimal.Decimal `json:"paidExpenses"`
	CashBalance     decimal.Decimal `json:"cashBalance"`
	MinimumDue      decimal.Decimal `json:"minimumDue"`
	TotalDebt       decimal.Decimal `json:"totalDebt"`
	ActiveAccounts  int             `json:"activeAccounts"`
}

const nonPayoffWarning = "payments do not cover the interest: the debt is not paid off and the plan was cut at 24 months"

func newEntryView(e core.ScheduleEntry, flowName string) entryView {
	return entryView{
		ID:       e.ID,
		FlowID:   e.FlowID,
		FlowName: flowName,
		Date:     e.Date,
		Amount:   core.Present(e.Amount),
		Settled:  e.Settled,
	}
}

func newEntryViews(views []core.EntryView) []entryView {
	out := make([]entryView, len(views))
	for i, v := range views {
		out[i] = newEntryView(v.ScheduleEntry, v.FlowName)
	}
	return out
}

func newFlowView(f core.CashFlow) flowView {
	v := flowView{
		ID:          f.ID,
		Kind:        f.Kind,
		Name:        f.Name,
		StartDate:   f.Spec.StartDate,
		IsRecurring: f.Spec.IsRecurring,
		Frequency:   f.Spec.Frequency,
		EndDate:     f.Spec.EndDate,
		Entries:     make([]entryView, len(f.Entries)),
	}
	if f.Spec.Amount.Valid {
		amount := core.Present(f.Spec.Amount.Decimal)
		v.Amount = &amount
	}
	for i, e := range f.Entries {
		v.Entries[i] = newEntryView(e, "")
	}
	return v
}

func newFlowViews(flows []core.CashFlow) []flowView {
	out := make([]flowView, len(flows))
	for i, f := range flows {
		out[i] = newFlowView(f)
	}
	return out
}

func newBankView(a core.DebtAccount) bankView {
	v := bankView{
		ID:               a.ID,
		Name:             a.Name,
		DebtType:         a.DebtType,
		TotalDebt:        a.TotalDebt,
		InterestRate:     a.InterestRate,
		InterestType:     a.InterestType,
		MinPaymentAmount: a.MinPaymentAmount,
		MinPaymentType:   a.MinPaymentType,
		PaymentDueDay:    a.PaymentDueDay,
		IsActive:         a.IsActive,
		CustomPayments:   make(map[core.MonthKey]decimal.Decimal, len(a.CustomPayments)),
		PaidMonths:       append([]core.MonthKey{}, a.PaidMonths...),
		Version:          a.Version,
	}
	for k, amount := range a.CustomPayments {
		v.CustomPayments[k] = amount
	}
	sort.Slice(v.PaidMonths, func(i, j int) bool { return v.PaidMonths[i] < v.PaidMonths[j] })
	return v
}

func newBankViews(accounts []core.DebtAccount) []bankView {
	out := make([]bankView, len(accounts))
	for i, a := range accounts {
		out[i] = newBankView(a)
	}
	return out
}

func newPlanView(p services.Plan) planView {
	v := planView{
		BankID:        p.Account.ID,
		Rows:          make([]planRowView, len(p.Rows)),
		PaidOff:       p.PaidOff,
		Truncated:     p.TruncatedByNonPayoff,
		TotalInterest: core.Present(p.TotalInterest),
		TotalPaid:     core.Present(p.TotalPaid),
	}
	if p.TruncatedByNonPayoff {
		v.Warning = nonPayoffWarning
	}
	for i, r := range p.Rows {
		v.Rows[i] = planRowView{
			MonthIndex:      r.MonthIndex,
			Month:           r.MonthKey,
			Date:            r.Date,
			StartingDebt:    core.Present(r.StartingDebt),
			Interest:        core.Present(r.InterestAccrued),
			Payment:         core.Present(r.PaymentApplied),
			RemainingDebt:   core.Present(r.RemainingDebt),
			IsCustomPayment: r.IsCustomPayment,
			IsPaid:          r.IsPaid,
		}
	}
	return v
}

func newPaymentResult(a core.DebtAccount, applied projection.Applied) paymentResult {
	return paymentResult{
		Bank: newBankView(a),
		Payment: paymentView{
			Month:           applied.MonthKey,
			Amount:          core.Present(applied.Payment),
			Interest:        core.Present(applied.Interest),
			Principal:       core.Present(applied.Principal),
			PreviousBalance: core.Present(applied.PreviousBalance),
			NewBalance:      core.Present(applied.NewBalance),
		},
	}
}

func newSummaryView(s report.MonthSummary) summaryView {
	return summaryView{
		Month:           s.Month,
		ExpectedIncome:  core.Present(s.ExpectedIncome),
		ReceivedIncome:  core.Present(s.ReceivedIncome),
		PlannedExpenses: core.Present(s.PlannedExpenses),
		PaidExpenses:    core.Present(s.PaidExpenses),
		CashBalance:     core.Present(s.CashBalance),
		MinimumDue:      core.Present(s.MinimumDue),
		TotalDebt:       core.Present(s.TotalDebt),
		ActiveAccounts:  s.ActiveAccounts,
	}
}

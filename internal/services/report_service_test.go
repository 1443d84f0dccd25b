package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/storage/memory"
)

func TestReportServiceSummary(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	flows := NewFlowService(store, report.Bucketer{}, nil)
	debts := NewDebtService(store, nil, DebtServiceConfig{Now: clock}, nil)

	salary, _ := flows.Create(ctx, core.Income, FlowInput{Name: "Salary", Spec: monthlySpec("2000", core.NewDate(2025, 1, 1))})
	rent, _ := flows.Create(ctx, core.Expense, FlowInput{Name: "Rent", Spec: monthlySpec("800", core.NewDate(2025, 1, 3))})
	flows.SetSettled(ctx, core.Income, salary.Entries[0].ID, true)
	flows.SetSettled(ctx, core.Expense, rent.Entries[0].ID, true)
	// a settled february entry must not leak into january
	flows.SetSettled(ctx, core.Income, salary.Entries[1].ID, true)

	debts.Create(ctx, core.DebtAccount{Name: "A", TotalDebt: d("1000"), InterestRate: d("1"), MinPaymentAmount: d("50"), IsActive: true})
	debts.Create(ctx, core.DebtAccount{Name: "B", TotalDebt: d("400"), InterestRate: d("1"), MinPaymentAmount: d("10"), MinPaymentType: core.MinPaymentPercentage, IsActive: true})
	debts.Create(ctx, core.DebtAccount{Name: "C", TotalDebt: d("999"), InterestRate: d("1"), MinPaymentAmount: d("99")})

	svc := NewReportService(store, report.Bucketer{}, clock, nil)
	s, err := svc.Summary(ctx, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"month", string(s.Month), "2025-01"},
		{"expected income", s.ExpectedIncome.String(), "2000"},
		{"received income", s.ReceivedIncome.String(), "2000"},
		{"planned expenses", s.PlannedExpenses.String(), "800"},
		{"paid expenses", s.PaidExpenses.String(), "800"},
		{"cash balance", s.CashBalance.String(), "1200"},
		{"minimum due", s.MinimumDue.String(), "90"},
		{"total debt", s.TotalDebt.String(), "1400"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.ActiveAccounts != 2 {
		t.Errorf("active accounts = %d", s.ActiveAccounts)
	}
}

func TestReportServiceErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewReportService(memory.New(), report.Bucketer{}, clock, nil)
	if _, err := svc.Summary(ctx, "January"); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	broken := NewReportService(failingStore{memory.New()}, report.Bucketer{}, clock, nil)
	if _, err := broken.Summary(ctx, "2025-01"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestReportServiceCurrentMonthHonorsCutoff(t *testing.T) {
	svc := NewReportService(memory.New(), report.Bucketer{CutoffDay: 15}, clock, nil)
	if got := svc.CurrentMonth(); got != "2025-02" {
		t.Fatalf("current month = %s", got)
	}
}

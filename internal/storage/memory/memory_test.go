package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	"github.com/shopspring/decimal"
)

func entry(y, m, d int, amount int64) core.ScheduleEntry {
	return core.ScheduleEntry{Date: core.NewDate(y, m, d), Amount: decimal.NewFromInt(amount)}
}

func TestAccountsVersioning(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.CreateAccount(ctx, core.DebtAccount{Name: "A", TotalDebt: decimal.NewFromInt(100), PaidMonths: []core.MonthKey{}})
	if a.ID == 0 || a.Version != 1 {
		t.Fatalf("unexpected account %+v", a)
	}

	stale := a
	a.TotalDebt = decimal.NewFromInt(50)
	if a, _ = s.UpdateAccount(ctx, a); a.Version != 2 {
		t.Fatalf("version not bumped: %d", a.Version)
	}
	if _, err := s.UpdateAccount(ctx, stale); !core.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// returned values must not alias stored state
	got, _ := s.GetAccount(ctx, a.ID)
	got.PaidMonths = append(got.PaidMonths, "2025-01")
	again, _ := s.GetAccount(ctx, a.ID)
	if len(again.PaidMonths) != 0 {
		t.Fatal("store state mutated through returned value")
	}

	if err := s.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetAccount(ctx, a.ID); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFlowsAndEntries(t *testing.T) {
	ctx := context.Background()
	s := New()

	f, err := s.CreateFlowWithEntries(ctx, core.CashFlow{
		Kind:    core.Expense,
		Name:    "Rent",
		Entries: []core.ScheduleEntry{entry(2025, 2, 1, 800), entry(2025, 1, 1, 800)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.Entries[0].Date.String() != "2025-01-01" || f.Entries[0].FlowID != f.ID {
		t.Fatalf("entries not sorted or linked: %+v", f.Entries)
	}

	views, _ := s.ListEntries(ctx, core.Expense, ports.EntryFilter{From: core.NewDate(2025, 2, 1)})
	if len(views) != 1 || views[0].FlowName != "Rent" {
		t.Fatalf("unexpected filtered entries %+v", views)
	}
	if other, _ := s.ListEntries(ctx, core.Income, ports.EntryFilter{}); len(other) != 0 {
		t.Fatalf("kind filter broken: %+v", other)
	}

	v, err := s.UpdateEntrySettled(ctx, core.Expense, views[0].ID, true)
	if err != nil || !v.Settled {
		t.Fatalf("settle: %+v %v", v, err)
	}
	if _, err := s.UpdateEntrySettled(ctx, core.Income, views[0].ID, false); !core.IsNotFound(err) {
		t.Fatalf("expected not found for other kind, got %v", err)
	}

	bad := []core.ScheduleEntry{entry(2025, 3, 1, 1), {Date: core.NewDate(2025, 4, 1)}}
	if _, err := s.ReplaceEntries(ctx, f.ID, bad); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	kept, _ := s.GetFlow(ctx, f.ID)
	if len(kept.Entries) != 2 || !kept.Entries[1].Settled {
		t.Fatalf("failed replace changed entries: %+v", kept.Entries)
	}

	if err := s.DeleteFlow(ctx, f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if left, _ := s.ListEntries(ctx, core.Expense, ports.EntryFilter{}); len(left) != 0 {
		t.Fatalf("entries survived delete: %+v", left)
	}
	if _, err := s.UpdateEntrySettled(ctx, core.Expense, views[0].ID, false); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

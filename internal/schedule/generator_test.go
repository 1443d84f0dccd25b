package schedule

import (
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

func amount(s string) decimal.NullDecimal {
	return core.NewAmount(decimal.RequireFromString(s))
}

func dates(entries []core.ScheduleEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Date.String()
	}
	return out
}

func TestGenerateIncompleteSpec(t *testing.T) {
	tests := []struct {
		name string
		spec core.RecurrenceSpec
	}{
		{"no amount", core.RecurrenceSpec{StartDate: core.NewDate(2025, 1, 1), IsRecurring: true, Frequency: core.Monthly}},
		{"no start date", core.RecurrenceSpec{Amount: amount("10"), IsRecurring: true, Frequency: core.Monthly}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.spec, ExpensePolicy)
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil slice, got %v", got)
			}
		})
	}
}

func TestGenerateNonRecurringReturnsOneEntry(t *testing.T) {
	for _, policy := range []Policy{ExpensePolicy, IncomePolicy} {
		spec := core.RecurrenceSpec{
			Amount:    amount("42.50"),
			StartDate: core.NewDate(2025, 6, 15),
			Frequency: core.Weekly, // ignored
			EndDate:   core.NewDate(2026, 1, 1),
		}
		got := Generate(spec, policy)
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		if got[0].Date.String() != "2025-06-15" || !got[0].Amount.Equal(decimal.RequireFromString("42.5")) || got[0].Settled {
			t.Fatalf("unexpected entry %+v", got[0])
		}
	}
}

func TestGenerateMonthlyWithEndDate(t *testing.T) {
	spec := core.RecurrenceSpec{
		Amount:      amount("100"),
		StartDate:   core.NewDate(2025, 1, 1),
		IsRecurring: true,
		Frequency:   core.Monthly,
		EndDate:     core.NewDate(2025, 3, 1),
	}
	got := dates(Generate(spec, ExpensePolicy))
	want := []string{"2025-01-01", "2025-02-01", "2025-03-01"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestGenerateBoundedEntriesStayWithinEndDate(t *testing.T) {
	end := core.NewDate(2025, 9, 30)
	for _, f := range []core.Frequency{core.Weekly, core.Monthly, core.Yearly} {
		t.Run(string(f), func(t *testing.T) {
			spec := core.RecurrenceSpec{
				Amount:      amount("5"),
				StartDate:   core.NewDate(2025, 1, 31),
				IsRecurring: true,
				Frequency:   f,
				EndDate:     end,
			}
			entries := Generate(spec, ExpensePolicy)
			if len(entries) == 0 {
				t.Fatal("expected entries")
			}
			for i, e := range entries {
				if e.Date.After(end.Time) {
					t.Fatalf("entry %d (%s) after end date", i, e.Date)
				}
				if i > 0 && !e.Date.After(entries[i-1].Date.Time) {
					t.Fatalf("entries not strictly increasing at %d: %v", i, dates(entries))
				}
			}
		})
	}
}

func TestGenerateExpenseDefaultHorizon(t *testing.T) {
	spec := core.RecurrenceSpec{
		Amount:      amount("20"),
		StartDate:   core.NewDate(2025, 1, 10),
		IsRecurring: true,
		Frequency:   core.Monthly,
	}
	got := Generate(spec, ExpensePolicy)
	// start plus 24 months inclusive
	if len(got) != 25 {
		t.Fatalf("expected 25 entries, got %d", len(got))
	}
	if last := got[len(got)-1].Date.String(); last != "2027-01-10" {
		t.Fatalf("last entry = %s", last)
	}
}

func TestGenerateIncomeCapsEntryCount(t *testing.T) {
	spec := core.RecurrenceSpec{
		Amount:      amount("3000"),
		StartDate:   core.NewDate(2025, 1, 1),
		IsRecurring: true,
		Frequency:   core.Yearly,
	}
	got := Generate(spec, IncomePolicy)
	if len(got) != DefaultIncomeEntries {
		t.Fatalf("expected %d entries, got %d", DefaultIncomeEntries, len(got))
	}
	if last := got[len(got)-1].Date.String(); last != "2048-01-01" {
		t.Fatalf("last entry = %s", last)
	}
}

func TestGenerateNeverExceedsMaxIterations(t *testing.T) {
	specs := []core.RecurrenceSpec{
		{Amount: amount("1"), StartDate: core.NewDate(2025, 1, 1), IsRecurring: true, Frequency: core.Weekly},
		{Amount: amount("1"), StartDate: core.NewDate(2025, 1, 1), IsRecurring: true, Frequency: core.Weekly, EndDate: core.NewDate(2100, 1, 1)},
		{Amount: amount("1"), StartDate: core.NewDate(2025, 1, 1), IsRecurring: true, Frequency: core.Monthly, EndDate: core.NewDate(2100, 1, 1)},
	}
	for _, policy := range []Policy{ExpensePolicy, IncomePolicy, {}} {
		for _, spec := range specs {
			if n := len(Generate(spec, policy)); n > MaxIterations {
				t.Fatalf("generated %d entries (policy %+v)", n, policy)
			}
		}
	}
	if n := len(Generate(specs[0], ExpensePolicy)); n != MaxIterations {
		t.Fatalf("weekly over 24 months should hit the ceiling, got %d", n)
	}
}

func TestGenerateMonthEndsClamp(t *testing.T) {
	spec := core.RecurrenceSpec{
		Amount:      amount("1"),
		StartDate:   core.NewDate(2025, 1, 31),
		IsRecurring: true,
		Frequency:   core.Monthly,
		EndDate:     core.NewDate(2025, 4, 30),
	}
	got := dates(Generate(spec, ExpensePolicy))
	want := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestGenerateUnknownFrequency(t *testing.T) {
	spec := core.RecurrenceSpec{
		Amount:      amount("1"),
		StartDate:   core.NewDate(2025, 1, 1),
		IsRecurring: true,
		Frequency:   core.Frequency("biweekly"),
	}
	if got := Generate(spec, ExpensePolicy); len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

func TestRegenerateCarryOver(t *testing.T) {
	spec := core.RecurrenceSpec{
		Amount:      amount("50"),
		StartDate:   core.NewDate(2025, 1, 1),
		IsRecurring: true,
		Frequency:   core.Monthly,
		EndDate:     core.NewDate(2025, 4, 1),
	}
	previous := []core.ScheduleEntry{
		{Date: core.NewDate(2025, 1, 1), Amount: decimal.NewFromInt(40), Settled: true},
		{Date: core.NewDate(2025, 2, 1), Amount: decimal.NewFromInt(40)},
		{Date: core.NewDate(2025, 2, 15), Amount: decimal.NewFromInt(40), Settled: true},
	}

	discarded := Regenerate(spec, ExpensePolicy, previous, false)
	for _, e := range discarded {
		if e.Settled {
			t.Fatalf("settlement should be discarded: %+v", e)
		}
	}

	kept := Regenerate(spec, ExpensePolicy, previous, true)
	if len(kept) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(kept))
	}
	if !kept[0].Settled {
		t.Error("2025-01-01 should keep its settlement")
	}
	for _, e := range kept[1:] {
		if e.Settled {
			t.Errorf("%s should not be settled", e.Date)
		}
	}
	if !kept[0].Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("amount should come from the new spec, got %s", kept[0].Amount)
	}
}

func TestGetStepper(t *testing.T) {
	tests := []struct {
		frequency core.Frequency
		wantErr   bool
	}{
		{core.Weekly, false},
		{core.Monthly, false},
		{core.Yearly, false},
		{core.Frequency("daily"), true},
	}
	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			s, err := GetStepper(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetStepper() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Fatal("nil stepper")
			}
		})
	}
}

// Package report computes the aggregate figures shown on the dashboard:
// monthly minimum due across debt accounts, cash balance and the month
// summary.
package report

import (
	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Bucketer assigns dated entries to billing months. With CutoffDay > 0 an
// entry dated on or after that day of the month belongs to the following
// month. The zero value buckets by calendar month.
type Bucketer struct {
	CutoffDay int
}

// Key returns the billing month of d.
func (b Bucketer) Key(d core.Date) core.MonthKey {
	key := d.MonthKey()
	if b.CutoffDay > 0 && d.Day() >= b.CutoffDay {
		return key.Add(1)
	}
	return key
}

// Range returns the first and last calendar day bucketed into key. It lets
// stores pre-filter by date before Key is applied.
func (b Bucketer) Range(key core.MonthKey) (from, to core.Date) {
	first := key.FirstDay()
	if first.IsZero() {
		return core.Date{}, core.Date{}
	}
	if b.CutoffDay <= 0 {
		return first, first.AddMonths(1).AddDays(-1)
	}
	prev := key.Add(-1).FirstDay()
	return prev.AddDays(b.CutoffDay - 1), first.AddDays(b.CutoffDay - 2)
}

// InMonth keeps the entries that fall into key.
func (b Bucketer) InMonth(entries []core.ScheduleEntry, key core.MonthKey) []core.ScheduleEntry {
	out := make([]core.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if b.Key(e.Date) == key {
			out = append(out, e)
		}
	}
	return out
}

// MonthlyMinimumDue sums the base minimum payment of every active account
// that has not already been paid for key. Custom overrides are not
// considered.
func MonthlyMinimumDue(accounts []core.DebtAccount, key core.MonthKey) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if !a.IsActive || a.IsPaid(key) {
			continue
		}
		total = total.Add(a.BaseMinimumPayment(a.TotalDebt))
	}
	return total
}

// CashBalance is settled income minus settled expenses within key.
func CashBalance(income, expense []core.ScheduleEntry, key core.MonthKey, b Bucketer) decimal.Decimal {
	_, received := totals(income, key, b)
	_, paid := totals(expense, key, b)
	return received.Sub(paid)
}

// totals returns the sum of all entries and of settled entries in key.
func totals(entries []core.ScheduleEntry, key core.MonthKey, b Bucketer) (all, settled decimal.Decimal) {
	all, settled = decimal.Zero, decimal.Zero
	for _, e := range entries {
		if b.Key(e.Date) != key {
			continue
		}
		all = all.Add(e.Amount)
		if e.Settled {
			settled = settled.Add(e.Amount)
		}
	}
	return all, settled
}

// MonthSummary groups the dashboard figures for one billing month.
type MonthSummary struct {
	Month           core.MonthKey
	ExpectedIncome  decimal.Decimal
	ReceivedIncome  decimal.Decimal
	PlannedExpenses decimal.Decimal
	PaidExpenses    decimal.Decimal
	CashBalance     decimal.Decimal
	MinimumDue      decimal.Decimal
	TotalDebt       decimal.Decimal
	ActiveAccounts  int
}

// Summarize builds the summary for key from already loaded data.
func Summarize(key core.MonthKey, income, expense []core.ScheduleEntry, accounts []core.DebtAccount, b Bucketer) MonthSummary {
	s := MonthSummary{Month: key, TotalDebt: decimal.Zero}
	s.ExpectedIncome, s.ReceivedIncome = totals(income, key, b)
	s.PlannedExpenses, s.PaidExpenses = totals(expense, key, b)
	s.CashBalance = s.ReceivedIncome.Sub(s.PaidExpenses)
	s.MinimumDue = MonthlyMinimumDue(accounts, key)
	for _, a := range accounts {
		if !a.IsActive {
			continue
		}
		s.ActiveAccounts++
		s.TotalDebt = s.TotalDebt.Add(a.TotalDebt)
	}
	return s
}

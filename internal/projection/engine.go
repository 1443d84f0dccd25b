// Package projection simulates the month-by-month payoff of a debt account
// and applies confirmed payments back onto the account snapshot.
//
// The engine is pure: it reads a snapshot and returns a new value. It never
// resumes from a saved cursor; every call starts from the account's current
// TotalDebt at the calendar month of the supplied time.
package projection

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const (
	DefaultHorizonMonths       = 60
	DefaultNonPayoffMonthIndex = 23
)

// Options tune a projection run. The zero value means defaults.
type Options struct {
	// HorizonMonths caps the number of simulated months.
	HorizonMonths int
	// NonPayoffMonthIndex is the month index at which a payment that does
	// not cover interest stops the simulation.
	NonPayoffMonthIndex int
	// PaidOffThreshold is the balance considered settled.
	PaidOffThreshold decimal.Decimal
}

// DefaultOptions returns the standard projection settings.
func DefaultOptions() Options {
	return Options{
		HorizonMonths:       DefaultHorizonMonths,
		NonPayoffMonthIndex: DefaultNonPayoffMonthIndex,
		PaidOffThreshold:    core.PaidOffThreshold,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HorizonMonths > 0 {
		d.HorizonMonths = o.HorizonMonths
	}
	if o.NonPayoffMonthIndex > 0 {
		d.NonPayoffMonthIndex = o.NonPayoffMonthIndex
	}
	if o.PaidOffThreshold.IsPositive() {
		d.PaidOffThreshold = o.PaidOffThreshold
	}
	return d
}

// Result is a full payoff plan.
type Result struct {
	Rows []core.ProjectionRow
	// TruncatedByNonPayoff is set when payments stopped covering interest.
	// It is a warning, not an error.
	TruncatedByNonPayoff bool
	// PaidOff reports that the balance reached the paid-off threshold
	// within the horizon.
	PaidOff       bool
	TotalInterest decimal.Decimal
	TotalPaid     decimal.Decimal
}

// Row returns the row for a month key.
func (r Result) Row(key core.MonthKey) (core.ProjectionRow, bool) {
	for _, row := range r.Rows {
		if row.MonthKey == key {
			return row, true
		}
	}
	return core.ProjectionRow{}, false
}

// ScheduledPayment is the payment the plan expects for a month given the
// balance at the start of that month. A custom payment for the month replaces
// the computed minimum entirely.
func ScheduledPayment(account core.DebtAccount, balance decimal.Decimal, key core.MonthKey) (payment decimal.Decimal, custom bool) {
	if override, ok := account.CustomPayments[key]; ok {
		return override, true
	}
	return account.BaseMinimumPayment(balance), false
}

// Interest is the flat per-period interest on a balance. Daily accounts use
// the same flat model.
func Interest(account core.DebtAccount, balance decimal.Decimal) decimal.Decimal {
	return core.Percent(balance, account.InterestRate)
}

// Step simulates one month from balance and returns the resulting row.
// nonAmortizing reports that the payment does not exceed the interest.
func Step(account core.DebtAccount, balance decimal.Decimal, key core.MonthKey) (row core.ProjectionRow, nonAmortizing bool) {
	interest := Interest(account, balance)
	payment, custom := ScheduledPayment(account, balance, key)

	nonAmortizing = payment.LessThanOrEqual(interest) && balance.IsPositive()

	owed := balance.Add(interest)
	actual := decimal.Min(payment, owed)
	remaining := decimal.Max(decimal.Zero, owed.Sub(actual))

	return core.ProjectionRow{
		MonthKey:        key,
		StartingDebt:    balance,
		InterestAccrued: interest,
		PaymentApplied:  actual,
		RemainingDebt:   remaining,
		IsCustomPayment: custom,
	}, nonAmortizing
}

// Project runs the payoff simulation starting at the calendar month of now.
//
// A month already listed in PaidMonths is emitted as a pass-through row: its
// payment is already reflected in TotalDebt.
func Project(account core.DebtAccount, now time.Time, opts Options) Result {
	opts = opts.withDefaults()

	dueDay := account.PaymentDueDay
	if dueDay == 0 {
		dueDay = core.DefaultPaymentDueDay
	}

	res := Result{
		Rows:          make([]core.ProjectionRow, 0),
		TotalInterest: decimal.Zero,
		TotalPaid:     decimal.Zero,
	}
	balance := account.TotalDebt
	start := core.MonthKeyOf(now)

	for idx := 0; ; idx++ {
		if balance.LessThanOrEqual(opts.PaidOffThreshold) {
			res.PaidOff = true
			break
		}
		if idx >= opts.HorizonMonths {
			break
		}

		key := start.Add(idx)
		if account.IsPaid(key) {
			res.Rows = append(res.Rows, core.ProjectionRow{
				MonthIndex:      idx,
				MonthKey:        key,
				Date:            key.Day(dueDay),
				StartingDebt:    balance,
				InterestAccrued: decimal.Zero,
				PaymentApplied:  decimal.Zero,
				RemainingDebt:   balance,
				IsPaid:          true,
			})
			continue
		}

		row, nonAmortizing := Step(account, balance, key)
		row.MonthIndex = idx
		row.Date = key.Day(dueDay)
		res.Rows = append(res.Rows, row)
		res.TotalInterest = res.TotalInterest.Add(row.InterestAccrued)
		res.TotalPaid = res.TotalPaid.Add(row.PaymentApplied)
		balance = row.RemainingDebt

		// A paid month at the cutoff index defers the stop to the next
		// unpaid row.
		if nonAmortizing && idx >= opts.NonPayoffMonthIndex {
			res.TruncatedByNonPayoff = true
			break
		}
	}

	return res
}

package schedule

import (
	"fintrack/internal/core"
)

const (
	// MaxIterations bounds every generation regardless of the policy.
	MaxIterations = 100
	// DefaultHorizonMonths is the expense horizon when no end date is given.
	DefaultHorizonMonths = 24
	// DefaultIncomeEntries is the income cap used instead of a date bound.
	DefaultIncomeEntries = 24
)

// Policy bounds a recurring schedule. Expenses are bounded by date, incomes
// by entry count.
type Policy struct {
	// HorizonMonths is used as the stop date when the spec has no end date.
	// Zero disables the date bound.
	HorizonMonths int
	// MaxEntries caps the number of entries. Zero means no cap besides
	// MaxIterations.
	MaxEntries int
}

var (
	ExpensePolicy = Policy{HorizonMonths: DefaultHorizonMonths}
	IncomePolicy  = Policy{MaxEntries: DefaultIncomeEntries}
)

// PolicyFor returns the default policy for a flow kind.
func PolicyFor(kind core.FlowKind) Policy {
	if kind == core.Income {
		return IncomePolicy
	}
	return ExpensePolicy
}

// Generate turns a recurrence spec into its ordered entries. An incomplete
// spec (no amount or no start date) yields no entries.
func Generate(spec core.RecurrenceSpec, policy Policy) []core.ScheduleEntry {
	if !spec.Amount.Valid || spec.StartDate.IsZero() {
		return []core.ScheduleEntry{}
	}

	amount := spec.Amount.Decimal
	if !spec.IsRecurring {
		return []core.ScheduleEntry{{Date: spec.StartDate, Amount: amount}}
	}

	stepper, err := GetStepper(spec.Frequency)
	if err != nil {
		return []core.ScheduleEntry{}
	}

	stop := spec.EndDate
	if stop.IsZero() && policy.HorizonMonths > 0 {
		stop = spec.StartDate.AddMonths(policy.HorizonMonths)
	}

	entries := make([]core.ScheduleEntry, 0)
	for i := 0; i < MaxIterations; i++ {
		if policy.MaxEntries > 0 && len(entries) >= policy.MaxEntries {
			break
		}
		current := stepper.At(spec.StartDate, i)
		if !stop.IsZero() && current.After(stop.Time) {
			break
		}
		entries = append(entries, core.ScheduleEntry{Date: current, Amount: amount})
	}
	return entries
}

// Regenerate rebuilds the full schedule for an edited flow. Settlement of the
// previous entries is dropped unless carryOver is set, in which case an entry
// keeps the Settled flag of the previous entry with the same date.
func Regenerate(spec core.RecurrenceSpec, policy Policy, previous []core.ScheduleEntry, carryOver bool) []core.ScheduleEntry {
	entries := Generate(spec, policy)
	if !carryOver || len(previous) == 0 {
		return entries
	}
	return CarryOver(entries, previous)
}

// CarryOver copies Settled flags from previous onto entries sharing a date.
func CarryOver(entries, previous []core.ScheduleEntry) []core.ScheduleEntry {
	settled := make(map[string]bool, len(previous))
	for _, p := range previous {
		if p.Settled {
			settled[p.Date.String()] = true
		}
	}
	out := make([]core.ScheduleEntry, len(entries))
	for i, e := range entries {
		e.Settled = settled[e.Date.String()]
		out[i] = e
	}
	return out
}

// Package schedule projects a base amount, date and frequency into a bounded
// sequence of dated entries.
//
// Frequencies are resolved through a small strategy registry: each Stepper
// knows how to compute the n-th occurrence after a start date.
package schedule

import (
	"fmt"

	"fintrack/internal/core"
)

// Stepper computes occurrence dates for one frequency.
type Stepper interface {
	// At returns the date of the n-th occurrence (n = 0 is start itself).
	At(start core.Date, n int) core.Date
}

// WeeklyStepper advances by 7 days.
type WeeklyStepper struct{}

func (WeeklyStepper) At(start core.Date, n int) core.Date {
	return start.AddDays(7 * n)
}

// MonthlyStepper advances by calendar months. Offsets are computed from the
// start date so a 31st keeps landing on month ends.
type MonthlyStepper struct{}

func (MonthlyStepper) At(start core.Date, n int) core.Date {
	return start.AddMonths(n)
}

// YearlyStepper advances by calendar years; Feb 29 falls back to Feb 28.
type YearlyStepper struct{}

func (YearlyStepper) At(start core.Date, n int) core.Date {
	return start.AddMonths(12 * n)
}

var steppers = map[core.Frequency]Stepper{
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepper registered for a frequency.
func GetStepper(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return s, nil
}

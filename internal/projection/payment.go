package projection

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Applied describes a payment folded into an account.
type Applied struct {
	MonthKey        core.MonthKey
	Payment         decimal.Decimal
	Interest        decimal.Decimal
	Principal       decimal.Decimal
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	IsCustomPayment bool
}

// ApplyScheduledPayment settles the projected row for key. The payment is
// taken from the same simulation that produced the plan, so the new balance
// matches what the plan showed for that month. The input account is not
// modified.
func ApplyScheduledPayment(account core.DebtAccount, key core.MonthKey, now time.Time, opts Options) (core.DebtAccount, Applied, error) {
	if err := key.Validate(); err != nil {
		return account, Applied{}, &core.ValidationError{Field: "month", Message: err.Error(), Err: err}
	}
	if account.IsPaid(key) {
		return account, Applied{}, &core.ValidationError{Field: "month", Message: "month " + string(key) + " already paid", Err: core.ErrAlreadyPaid}
	}

	row, ok := Project(account, now, opts).Row(key)
	if !ok {
		return account, Applied{}, &core.ValidationError{Field: "month", Message: "month " + string(key) + " is not part of the payment plan"}
	}

	principal := row.PaymentApplied.Sub(row.InterestAccrued)
	updated := account.WithPaidMonth(key)
	updated.TotalDebt = decimal.Max(decimal.Zero, account.TotalDebt.Sub(principal))

	return updated, Applied{
		MonthKey:        key,
		Payment:         row.PaymentApplied,
		Interest:        row.InterestAccrued,
		Principal:       principal,
		PreviousBalance: account.TotalDebt,
		NewBalance:      updated.TotalDebt,
		IsCustomPayment: row.IsCustomPayment,
	}, nil
}

// ApplyExtraPayment subtracts an ad-hoc payment straight from the balance.
// Unlike a scheduled payment it does not separate interest and does not mark
// any month as paid.
func ApplyExtraPayment(account core.DebtAccount, amount decimal.Decimal) (core.DebtAccount, Applied, error) {
	if !amount.IsPositive() {
		return account, Applied{}, &core.ValidationError{Field: "amount", Message: core.ErrInvalidAmount.Error(), Err: core.ErrInvalidAmount}
	}

	updated := account.Clone()
	updated.TotalDebt = decimal.Max(decimal.Zero, account.TotalDebt.Sub(amount))

	return updated, Applied{
		Payment:         amount,
		Interest:        decimal.Zero,
		Principal:       account.TotalDebt.Sub(updated.TotalDebt),
		PreviousBalance: account.TotalDebt,
		NewBalance:      updated.TotalDebt,
	}, nil
}

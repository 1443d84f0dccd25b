package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/shopspring/decimal"
)

const accountColumns = `id, name, debt_type, total_debt, interest_rate, interest_type,
	min_payment_amount, min_payment_type, payment_due_day, is_active,
	custom_payments, paid_months, version`

func scanAccount(s scanner) (core.DebtAccount, error) {
	var (
		a            core.DebtAccount
		interestType string
		minType      string
		custom, paid string
	)
	err := s.Scan(&a.ID, &a.Name, &a.DebtType, &a.TotalDebt, &a.InterestRate, &interestType,
		&a.MinPaymentAmount, &minType, &a.PaymentDueDay, &a.IsActive,
		&custom, &paid, &a.Version)
	if err != nil {
		return core.DebtAccount{}, err
	}
	a.InterestType = core.InterestType(interestType)
	a.MinPaymentType = core.MinPaymentType(minType)

	a.CustomPayments = map[core.MonthKey]decimal.Decimal{}
	if err := json.Unmarshal([]byte(custom), &a.CustomPayments); err != nil {
		return core.DebtAccount{}, fmt.Errorf("decode custom payments of account %d: %w", a.ID, err)
	}
	a.PaidMonths = []core.MonthKey{}
	if err := json.Unmarshal([]byte(paid), &a.PaidMonths); err != nil {
		return core.DebtAccount{}, fmt.Errorf("decode paid months of account %d: %w", a.ID, err)
	}
	return a, nil
}

func encodeAccountMaps(a core.DebtAccount) (custom, paid string, err error) {
	cp := a.CustomPayments
	if cp == nil {
		cp = map[core.MonthKey]decimal.Decimal{}
	}
	pm := a.PaidMonths
	if pm == nil {
		pm = []core.MonthKey{}
	}
	cb, err := json.Marshal(cp)
	if err != nil {
		return "", "", fmt.Errorf("encode custom payments: %w", err)
	}
	pb, err := json.Marshal(pm)
	if err != nil {
		return "", "", fmt.Errorf("encode paid months: %w", err)
	}
	return string(cb), string(pb), nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.DebtAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM debt_accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]core.DebtAccount, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.DebtAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM debt_accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DebtAccount{}, &core.NotFoundError{Entity: "bank", ID: id}
	}
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	custom, paid, err := encodeAccountMaps(a)
	if err != nil {
		return core.DebtAccount{}, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO debt_accounts
		(name, debt_type, total_debt, interest_rate, interest_type, min_payment_amount,
		 min_payment_type, payment_due_day, is_active, custom_payments, paid_months, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		a.Name, a.DebtType, a.TotalDebt, a.InterestRate, string(a.InterestType), a.MinPaymentAmount,
		string(a.MinPaymentType), a.PaymentDueDay, a.IsActive, custom, paid)
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("account id: %w", err)
	}

	r.logger.InfoContext(ctx, "Account created", log.FieldAccountID, id, log.FieldOperation, log.OpCreate)
	return r.GetAccount(ctx, id)
}

// UpdateAccount writes a only if the stored version still equals a.Version.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	custom, paid, err := encodeAccountMaps(a)
	if err != nil {
		return core.DebtAccount{}, err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE debt_accounts SET
		name = ?, debt_type = ?, total_debt = ?, interest_rate = ?, interest_type = ?,
		min_payment_amount = ?, min_payment_type = ?, payment_due_day = ?, is_active = ?,
		custom_payments = ?, paid_months = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`,
		a.Name, a.DebtType, a.TotalDebt, a.InterestRate, string(a.InterestType),
		a.MinPaymentAmount, string(a.MinPaymentType), a.PaymentDueDay, a.IsActive,
		custom, paid, a.ID, a.Version)
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	if n == 0 {
		if _, err := r.GetAccount(ctx, a.ID); err != nil {
			return core.DebtAccount{}, err
		}
		return core.DebtAccount{}, &core.ConflictError{Entity: "bank", ID: a.ID}
	}
	return r.GetAccount(ctx, a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debt_accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "bank", ID: id}
	}
	r.logger.InfoContext(ctx, "Account deleted", log.FieldAccountID, id, log.FieldOperation, log.OpDelete)
	return nil
}

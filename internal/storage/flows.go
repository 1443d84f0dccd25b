package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

const flowColumns = `id, kind, name, amount, start_date, is_recurring, frequency, end_date`

func scanFlow(s scanner) (core.CashFlow, error) {
	var (
		f          core.CashFlow
		kind, freq string
		start, end sql.NullString
	)
	if err := s.Scan(&f.ID, &kind, &f.Name, &f.Spec.Amount, &start, &f.Spec.IsRecurring, &freq, &end); err != nil {
		return core.CashFlow{}, err
	}
	f.Kind = core.FlowKind(kind)
	f.Spec.Frequency = core.Frequency(freq)

	var err error
	if f.Spec.StartDate, err = parseNullDate(start); err != nil {
		return core.CashFlow{}, fmt.Errorf("flow %d start date: %w", f.ID, err)
	}
	if f.Spec.EndDate, err = parseNullDate(end); err != nil {
		return core.CashFlow{}, fmt.Errorf("flow %d end date: %w", f.ID, err)
	}
	return f, nil
}

func (r *SQLiteRepository) ListFlows(ctx context.Context, kind core.FlowKind) ([]core.CashFlow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+flowColumns+` FROM cash_flows WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	flows := make([]core.CashFlow, 0)
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		flows = append(flows, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	entries, err := r.ListEntries(ctx, kind, ports.EntryFilter{})
	if err != nil {
		return nil, err
	}
	byFlow := make(map[int64][]core.ScheduleEntry, len(flows))
	for _, e := range entries {
		byFlow[e.FlowID] = append(byFlow[e.FlowID], e.ScheduleEntry)
	}
	for i := range flows {
		flows[i].Entries = byFlow[flows[i].ID]
		if flows[i].Entries == nil {
			flows[i].Entries = []core.ScheduleEntry{}
		}
	}
	return flows, nil
}

func (r *SQLiteRepository) GetFlow(ctx context.Context, id int64) (core.CashFlow, error) {
	f, err := scanFlow(r.db.QueryRowContext(ctx, `SELECT `+flowColumns+` FROM cash_flows WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashFlow{}, &core.NotFoundError{Entity: "flow", ID: id}
	}
	if err != nil {
		return core.CashFlow{}, fmt.Errorf("get flow %d: %w", id, err)
	}

	entries, err := r.ListEntries(ctx, f.Kind, ports.EntryFilter{FlowID: id})
	if err != nil {
		return core.CashFlow{}, err
	}
	f.Entries = make([]core.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		f.Entries = append(f.Entries, e.ScheduleEntry)
	}
	return f, nil
}

func (r *SQLiteRepository) CreateFlowWithEntries(ctx context.Context, f core.CashFlow) (core.CashFlow, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO cash_flows
			(kind, name, amount, start_date, is_recurring, frequency, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(f.Kind), f.Name, f.Spec.Amount, nullableDate(f.Spec.StartDate),
			f.Spec.IsRecurring, string(f.Spec.Frequency), nullableDate(f.Spec.EndDate))
		if err != nil {
			return fmt.Errorf("insert flow: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("flow id: %w", err)
		}
		return insertEntries(ctx, tx, id, f.Entries)
	})
	if err != nil {
		return core.CashFlow{}, err
	}

	r.logger.InfoContext(ctx, "Flow created",
		log.FieldFlowID, id,
		log.FieldFlowKind, string(f.Kind),
		"entries", len(f.Entries))
	return r.GetFlow(ctx, id)
}

func (r *SQLiteRepository) UpdateFlow(ctx context.Context, f core.CashFlow) (core.CashFlow, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE cash_flows SET
			name = ?, amount = ?, start_date = ?, is_recurring = ?, frequency = ?, end_date = ?,
			updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			f.Name, f.Spec.Amount, nullableDate(f.Spec.StartDate), f.Spec.IsRecurring,
			string(f.Spec.Frequency), nullableDate(f.Spec.EndDate), f.ID)
		if err != nil {
			return fmt.Errorf("update flow %d: %w", f.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &core.NotFoundError{Entity: "flow", ID: f.ID}
		}
		return replaceEntries(ctx, tx, f.ID, f.Entries)
	})
	if err != nil {
		return core.CashFlow{}, err
	}
	r.logger.InfoContext(ctx, "Flow updated", log.FieldFlowID, f.ID, "entries", len(f.Entries))
	return r.GetFlow(ctx, f.ID)
}

func (r *SQLiteRepository) ReplaceEntries(ctx context.Context, flowID int64, entries []core.ScheduleEntry) ([]core.ScheduleEntry, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cash_flows WHERE id = ?`, flowID).Scan(&exists); err != nil {
			return fmt.Errorf("check flow %d: %w", flowID, err)
		}
		if exists == 0 {
			return &core.NotFoundError{Entity: "flow", ID: flowID}
		}
		return replaceEntries(ctx, tx, flowID, entries)
	})
	if err != nil {
		return nil, err
	}
	f, err := r.GetFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return f.Entries, nil
}

func (r *SQLiteRepository) DeleteFlow(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cash_flows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete flow %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &core.NotFoundError{Entity: "flow", ID: id}
	}
	r.logger.InfoContext(ctx, "Flow deleted", log.FieldFlowID, id, log.FieldOperation, log.OpDelete)
	return nil
}

func replaceEntries(ctx context.Context, tx *sql.Tx, flowID int64, entries []core.ScheduleEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE flow_id = ?`, flowID); err != nil {
		return fmt.Errorf("delete entries of flow %d: %w", flowID, err)
	}
	return insertEntries(ctx, tx, flowID, entries)
}

func insertEntries(ctx context.Context, tx *sql.Tx, flowID int64, entries []core.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO schedule_entries (flow_id, entry_date, amount, settled) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, flowID, e.Date.String(), e.Amount, e.Settled); err != nil {
			return fmt.Errorf("insert entry %d of flow %d: %w", i, flowID, err)
		}
	}
	return nil
}

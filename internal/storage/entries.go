package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const entryColumns = `e.id, e.flow_id, e.entry_date, e.amount, e.settled, f.kind, f.name`

func scanEntry(s scanner) (core.EntryView, error) {
	var (
		v          core.EntryView
		date, kind string
	)
	if err := s.Scan(&v.ID, &v.FlowID, &date, &v.Amount, &v.Settled, &kind, &v.FlowName); err != nil {
		return core.EntryView{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.EntryView{}, fmt.Errorf("entry %d date: %w", v.ID, err)
	}
	v.Date = d
	v.Kind = core.FlowKind(kind)
	return v, nil
}

// ListEntries returns the entries of every flow of kind, ordered by date.
func (r *SQLiteRepository) ListEntries(ctx context.Context, kind core.FlowKind, f ports.EntryFilter) ([]core.EntryView, error) {
	where := []string{"f.kind = ?"}
	args := []any{string(kind)}
	if f.FlowID != 0 {
		where = append(where, "e.flow_id = ?")
		args = append(args, f.FlowID)
	}
	if !f.From.IsZero() {
		where = append(where, "e.entry_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "e.entry_date <= ?")
		args = append(args, f.To.String())
	}

	query := `SELECT ` + entryColumns + `
		FROM schedule_entries e JOIN cash_flows f ON f.id = e.flow_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.entry_date, e.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]core.EntryView, 0)
	for rows.Next() {
		v, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateEntrySettled(ctx context.Context, kind core.FlowKind, id int64, settled bool) (core.EntryView, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE schedule_entries SET settled = ?
		WHERE id = ? AND flow_id IN (SELECT id FROM cash_flows WHERE kind = ?)`, settled, id, string(kind))
	if err != nil {
		return core.EntryView{}, fmt.Errorf("update entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.EntryView{}, &core.NotFoundError{Entity: "entry", ID: id}
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+`
		FROM schedule_entries e JOIN cash_flows f ON f.id = e.flow_id
		WHERE e.id = ?`, id)
	v, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EntryView{}, &core.NotFoundError{Entity: "entry", ID: id}
	}
	if err != nil {
		return core.EntryView{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return v, nil
}

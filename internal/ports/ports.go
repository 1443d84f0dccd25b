// Package ports declares the collaborators the services depend on. Storage,
// messaging and export adapters implement them.
package ports

import (
	"context"

	"fintrack/internal/core"
)

// EntryFilter narrows an entry listing. Zero fields are ignored.
type EntryFilter struct {
	From   core.Date
	To     core.Date
	FlowID int64
}

// Matches reports whether e passes the filter.
func (f EntryFilter) Matches(e core.ScheduleEntry) bool {
	if f.FlowID != 0 && e.FlowID != f.FlowID {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To.Time) {
		return false
	}
	return true
}

type (
	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.DebtAccount, error)
		GetAccount(ctx context.Context, id int64) (core.DebtAccount, error)
		CreateAccount(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error)
		// UpdateAccount persists a when the stored version equals a.Version
		// and returns the account with its new version. A mismatch yields
		// *core.ConflictError.
		UpdateAccount(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error)
		DeleteAccount(ctx context.Context, id int64) error
	}

	FlowStore interface {
		// ListFlows returns the flows of a kind with their entries.
		ListFlows(ctx context.Context, kind core.FlowKind) ([]core.CashFlow, error)
		GetFlow(ctx context.Context, id int64) (core.CashFlow, error)
		// CreateFlowWithEntries inserts the flow and its entries atomically.
		CreateFlowWithEntries(ctx context.Context, f core.CashFlow) (core.CashFlow, error)
		// UpdateFlow rewrites the flow and replaces all of its entries
		// atomically.
		UpdateFlow(ctx context.Context, f core.CashFlow) (core.CashFlow, error)
		// ReplaceEntries deletes and reinserts the entries of a flow in one
		// transaction.
		ReplaceEntries(ctx context.Context, flowID int64, entries []core.ScheduleEntry) ([]core.ScheduleEntry, error)
		// DeleteFlow removes the flow and its entries.
		DeleteFlow(ctx context.Context, id int64) error
	}

	EntryStore interface {
		ListEntries(ctx context.Context, kind core.FlowKind, f EntryFilter) ([]core.EntryView, error)
		// UpdateEntrySettled only touches entries whose flow has the given
		// kind; any other id is not found.
		UpdateEntrySettled(ctx context.Context, kind core.FlowKind, id int64, settled bool) (core.EntryView, error)
	}

	// Store is the full persistence surface.
	Store interface {
		AccountStore
		FlowStore
		EntryStore
		Ping(ctx context.Context) error
		Close() error
	}

	PaymentPublisher interface {
		PublishPaymentApplied(ctx context.Context, ev core.PaymentEvent) error
	}

	// PaymentExporter appends a payment to an external log and returns a
	// reference to the written row.
	PaymentExporter interface {
		AppendPayment(ctx context.Context, ev core.PaymentEvent) (rowRef string, err error)
	}
)

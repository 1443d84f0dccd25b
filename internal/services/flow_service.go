// Package services orchestrates the domain packages over storage and
// messaging: cash flows, debt accounts and the monthly summary.
package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/report"
	"fintrack/internal/schedule"
)

// FlowRepository is the persistence FlowService needs.
type FlowRepository interface {
	ports.FlowStore
	ports.EntryStore
}

// FlowInput is a create or update request for an income or expense.
type FlowInput struct {
	Name string
	Spec core.RecurrenceSpec
	// Entries, when not empty, replace the generated schedule.
	Entries []core.ScheduleEntry
	// PreserveSettled keeps the settled flag of entries whose date survives
	// an update.
	PreserveSettled bool
}

// FlowService manages income sources and scheduled expenses with their
// entries.
type FlowService struct {
	store    FlowRepository
	bucketer report.Bucketer
	logger   *log.Logger
}

func NewFlowService(store FlowRepository, bucketer report.Bucketer, logger *log.Logger) *FlowService {
	if logger == nil {
		logger = log.Discard()
	}
	return &FlowService{
		store:    store,
		bucketer: bucketer,
		logger:   logger.WithComponent(log.ComponentFlow),
	}
}

func (s *FlowService) List(ctx context.Context, kind core.FlowKind) ([]core.CashFlow, error) {
	flows, err := s.store.ListFlows(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s flows: %w", kind, err)
	}
	return flows, nil
}

// Get returns the flow with id when it has the requested kind.
func (s *FlowService) Get(ctx context.Context, kind core.FlowKind, id int64) (core.CashFlow, error) {
	f, err := s.store.GetFlow(ctx, id)
	if err != nil {
		return core.CashFlow{}, err
	}
	if f.Kind != kind {
		return core.CashFlow{}, &core.NotFoundError{Entity: string(kind), ID: id}
	}
	return f, nil
}

// Create builds the schedule for in and stores the flow with its entries in
// one step.
func (s *FlowService) Create(ctx context.Context, kind core.FlowKind, in FlowInput) (core.CashFlow, error) {
	f := core.CashFlow{Kind: kind, Name: in.Name, Spec: in.Spec}
	if err := f.Validate(); err != nil {
		return core.CashFlow{}, err
	}

	f.Entries = in.Entries
	if len(f.Entries) == 0 {
		f.Entries = schedule.Generate(in.Spec, schedule.PolicyFor(kind))
	}

	created, err := s.store.CreateFlowWithEntries(ctx, f)
	if err != nil {
		return core.CashFlow{}, fmt.Errorf("create %s: %w", kind, err)
	}

	s.logger.InfoContext(ctx, "Flow created",
		log.FieldFlowID, created.ID,
		log.FieldFlowKind, kind,
		"entries", len(created.Entries))
	return created, nil
}

// Update rewrites the flow and replaces its whole schedule. Settlement of the
// previous entries is discarded unless in.PreserveSettled is set.
func (s *FlowService) Update(ctx context.Context, kind core.FlowKind, id int64, in FlowInput) (core.CashFlow, error) {
	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return core.CashFlow{}, err
	}

	f := core.CashFlow{ID: id, Kind: kind, Name: in.Name, Spec: in.Spec}
	if err := f.Validate(); err != nil {
		return core.CashFlow{}, err
	}

	if len(in.Entries) > 0 {
		f.Entries = in.Entries
		if in.PreserveSettled {
			f.Entries = schedule.CarryOver(f.Entries, current.Entries)
		}
	} else {
		f.Entries = schedule.Regenerate(in.Spec, schedule.PolicyFor(kind), current.Entries, in.PreserveSettled)
	}

	updated, err := s.store.UpdateFlow(ctx, f)
	if err != nil {
		return core.CashFlow{}, fmt.Errorf("update %s %d: %w", kind, id, err)
	}

	s.logger.InfoContext(ctx, "Flow updated",
		log.FieldFlowID, id,
		log.FieldFlowKind, kind,
		"entries", len(updated.Entries),
		"preserve_settled", in.PreserveSettled)
	return updated, nil
}

// Delete removes the flow and every entry it owns.
func (s *FlowService) Delete(ctx context.Context, kind core.FlowKind, id int64) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}
	if err := s.store.DeleteFlow(ctx, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	s.logger.InfoContext(ctx, "Flow deleted", log.FieldFlowID, id, log.FieldFlowKind, kind)
	return nil
}

// ListEntries returns the entries of a kind. A non-empty month restricts the
// result to entries the bucketer assigns to that month.
func (s *FlowService) ListEntries(ctx context.Context, kind core.FlowKind, month core.MonthKey) ([]core.EntryView, error) {
	var filter ports.EntryFilter
	if month != "" {
		if err := month.Validate(); err != nil {
			return nil, &core.ValidationError{Field: "month", Message: err.Error(), Err: err}
		}
		filter.From, filter.To = s.bucketer.Range(month)
	}

	views, err := s.store.ListEntries(ctx, kind, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", kind, err)
	}
	if month == "" {
		return views, nil
	}

	out := make([]core.EntryView, 0, len(views))
	for _, v := range views {
		if s.bucketer.Key(v.Date) == month {
			out = append(out, v)
		}
	}
	return out, nil
}

// SetSettled marks one entry as received (income) or paid (expense).
func (s *FlowService) SetSettled(ctx context.Context, kind core.FlowKind, entryID int64, settled bool) (core.EntryView, error) {
	v, err := s.store.UpdateEntrySettled(ctx, kind, entryID, settled)
	if err != nil {
		return core.EntryView{}, fmt.Errorf("settle entry %d: %w", entryID, err)
	}
	s.logger.DebugContext(ctx, "Entry settlement changed",
		log.FieldEntryID, entryID,
		log.FieldFlowKind, kind,
		"settled", settled)
	return v, nil
}

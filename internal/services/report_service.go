package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/report"

	"golang.org/x/sync/errgroup"
)

// ReportRepository is the read side ReportService needs.
type ReportRepository interface {
	ListAccounts(ctx context.Context) ([]core.DebtAccount, error)
	ListEntries(ctx context.Context, kind core.FlowKind, f ports.EntryFilter) ([]core.EntryView, error)
}

// ReportService computes the dashboard figures for a billing month.
type ReportService struct {
	store    ReportRepository
	bucketer report.Bucketer
	now      core.NowFunc
	logger   *log.Logger
}

func NewReportService(store ReportRepository, bucketer report.Bucketer, now core.NowFunc, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.Discard()
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		store:    store,
		bucketer: bucketer,
		now:      now,
		logger:   logger.WithComponent(log.ComponentReport),
	}
}

// CurrentMonth is the billing month containing today.
func (s *ReportService) CurrentMonth() core.MonthKey {
	return s.bucketer.Key(core.DateOf(s.now()))
}

// Summary loads accounts and the month's entries concurrently and
// aggregates them. An empty month means the current billing month.
func (s *ReportService) Summary(ctx context.Context, month core.MonthKey) (report.MonthSummary, error) {
	if month == "" {
		month = s.CurrentMonth()
	}
	if err := month.Validate(); err != nil {
		return report.MonthSummary{}, &core.ValidationError{Field: "month", Message: err.Error(), Err: err}
	}

	from, to := s.bucketer.Range(month)
	filter := ports.EntryFilter{From: from, To: to}

	var (
		accounts        []core.DebtAccount
		income, expense []core.ScheduleEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		views, err := s.store.ListEntries(gctx, core.Income, filter)
		if err != nil {
			return fmt.Errorf("load income entries: %w", err)
		}
		income = entriesOf(views)
		return nil
	})
	g.Go(func() error {
		views, err := s.store.ListEntries(gctx, core.Expense, filter)
		if err != nil {
			return fmt.Errorf("load expense entries: %w", err)
		}
		expense = entriesOf(views)
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.MonthSummary{}, err
	}

	summary := report.Summarize(month, income, expense, accounts, s.bucketer)
	s.logger.DebugContext(ctx, "Summary computed",
		log.FieldMonth, month,
		"income_entries", len(income),
		"expense_entries", len(expense),
		"accounts", len(accounts))
	return summary, nil
}

func entriesOf(views []core.EntryView) []core.ScheduleEntry {
	out := make([]core.ScheduleEntry, len(views))
	for i, v := range views {
		out[i] = v.ScheduleEntry
	}
	return out
}

package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/projection"

	"github.com/shopspring/decimal"
)

// DebtServiceConfig tunes the debt service. Zero fields take defaults.
type DebtServiceConfig struct {
	Projection projection.Options
	CacheSize  int
	CacheTTL   time.Duration
	Now        core.NowFunc
}

// Plan is a payoff projection together with the account it was computed
// from.
type Plan struct {
	Account core.DebtAccount
	projection.Result
}

// DebtService manages debt accounts, their payoff plans and payments.
type DebtService struct {
	store     ports.AccountStore
	publisher ports.PaymentPublisher
	plans     *cache.LRUCache[projection.Result]
	opts      projection.Options
	now       core.NowFunc
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewDebtService wires the service. publisher may be nil, in which case
// payment events are only logged.
func NewDebtService(store ports.AccountStore, publisher ports.PaymentPublisher, cfg DebtServiceConfig, logger *log.Logger) *DebtService {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DebtService{
		store:     store,
		publisher: publisher,
		plans:     cache.NewLRUCache[projection.Result](cfg.CacheSize, cfg.CacheTTL).WithClock(cfg.Now),
		opts:      cfg.Projection,
		now:       cfg.Now,
		logger:    logger.WithComponent(log.ComponentDebt),
		events:    log.NewStructuredLogger(logger),
	}
}

// PlanCache exposes the projection cache for periodic cleanup.
func (s *DebtService) PlanCache() cache.Cleaner { return s.plans }

func (s *DebtService) List(ctx context.Context) ([]core.DebtAccount, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *DebtService) Get(ctx context.Context, id int64) (core.DebtAccount, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *DebtService) Create(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	a.ID = 0
	a.Normalize()
	if a.CustomPayments == nil {
		a.CustomPayments = map[core.MonthKey]decimal.Decimal{}
	}
	a.PaidMonths = []core.MonthKey{}
	if err := a.Validate(); err != nil {
		return core.DebtAccount{}, err
	}

	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account created", log.FieldAccountID, created.ID)
	return created, nil
}

// Update replaces the editable fields of an account. A zero Version skips the
// concurrency check and writes over the stored version. Nil CustomPayments
// or PaidMonths keep the stored values.
func (s *DebtService) Update(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	current, err := s.store.GetAccount(ctx, a.ID)
	if err != nil {
		return core.DebtAccount{}, err
	}
	if a.Version == 0 {
		a.Version = current.Version
	}
	if a.CustomPayments == nil {
		a.CustomPayments = current.CustomPayments
	}
	if a.PaidMonths == nil {
		a.PaidMonths = current.PaidMonths
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return core.DebtAccount{}, err
	}
	return s.save(ctx, a)
}

func (s *DebtService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	s.logger.InfoContext(ctx, "Account deleted", log.FieldAccountID, id)
	return nil
}

// Plan projects the payoff of an account from the current month. Results are
// cached per account and month until the account changes.
func (s *DebtService) Plan(ctx context.Context, id int64) (Plan, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return Plan{}, err
	}

	now := s.now()
	key := planKey(id, core.MonthKeyOf(now), a.Version)
	if res, ok := s.plans.Get(key); ok {
		return Plan{Account: a, Result: res}, nil
	}

	res := projection.Project(a, now, s.opts)
	s.plans.Set(key, res)

	if res.TruncatedByNonPayoff {
		s.logger.WarnContext(ctx, "Payments do not cover interest, plan truncated",
			log.FieldAccountID, id,
			log.FieldOperation, log.OpPlan,
			"rows", len(res.Rows))
	}
	return Plan{Account: a, Result: res}, nil
}

// SetCustomPayment overrides the scheduled payment for one month.
func (s *DebtService) SetCustomPayment(ctx context.Context, id int64, month core.MonthKey, amount decimal.Decimal) (core.DebtAccount, error) {
	if err := month.Validate(); err != nil {
		return core.DebtAccount{}, &core.ValidationError{Field: "month", Message: err.Error(), Err: err}
	}
	if amount.IsNegative() {
		return core.DebtAccount{}, &core.ValidationError{Field: "amount", Message: "custom payment cannot be negative"}
	}

	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.DebtAccount{}, err
	}
	a = a.Clone()
	if a.CustomPayments == nil {
		a.CustomPayments = map[core.MonthKey]decimal.Decimal{}
	}
	a.CustomPayments[month] = amount
	return s.save(ctx, a)
}

// ClearCustomPayment drops the override for month. Clearing a month without
// an override is a no-op.
func (s *DebtService) ClearCustomPayment(ctx context.Context, id int64, month core.MonthKey) (core.DebtAccount, error) {
	if err := month.Validate(); err != nil {
		return core.DebtAccount{}, &core.ValidationError{Field: "month", Message: err.Error(), Err: err}
	}

	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.DebtAccount{}, err
	}
	if _, ok := a.CustomPayments[month]; !ok {
		return a, nil
	}
	a = a.Clone()
	delete(a.CustomPayments, month)
	return s.save(ctx, a)
}

// PayMonth confirms that the projected payment for month was made.
func (s *DebtService) PayMonth(ctx context.Context, id int64, month core.MonthKey) (core.DebtAccount, projection.Applied, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.DebtAccount{}, projection.Applied{}, err
	}

	now := s.now()
	updated, applied, err := projection.ApplyScheduledPayment(a, month, now, s.opts)
	if err != nil {
		return core.DebtAccount{}, projection.Applied{}, err
	}

	saved, err := s.save(ctx, updated)
	if err != nil {
		return core.DebtAccount{}, projection.Applied{}, err
	}

	s.emit(ctx, saved, core.PaymentScheduled, applied, now)
	return saved, applied, nil
}

// PayExtra applies an ad-hoc payment straight to the balance.
func (s *DebtService) PayExtra(ctx context.Context, id int64, amount decimal.Decimal) (core.DebtAccount, projection.Applied, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.DebtAccount{}, projection.Applied{}, err
	}

	updated, applied, err := projection.ApplyExtraPayment(a, amount)
	if err != nil {
		return core.DebtAccount{}, projection.Applied{}, err
	}

	saved, err := s.save(ctx, updated)
	if err != nil {
		return core.DebtAccount{}, projection.Applied{}, err
	}

	s.emit(ctx, saved, core.PaymentExtra, applied, s.now())
	return saved, applied, nil
}

func (s *DebtService) save(ctx context.Context, a core.DebtAccount) (core.DebtAccount, error) {
	saved, err := s.store.UpdateAccount(ctx, a)
	if err != nil {
		return core.DebtAccount{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	s.invalidate(a.ID)
	return saved, nil
}

func (s *DebtService) invalidate(id int64) {
	if n := s.plans.DeletePrefix(accountPrefix(id)); n > 0 {
		s.logger.Debug("Plan cache invalidated", log.FieldAccountID, id, "count", n)
	}
}

// emit logs the payment and publishes it. Publishing failures never fail the
// payment: the account is already persisted.
func (s *DebtService) emit(ctx context.Context, a core.DebtAccount, kind core.PaymentKind, applied projection.Applied, at time.Time) {
	ev := core.PaymentEvent{
		AccountID:       a.ID,
		AccountName:     a.Name,
		Kind:            kind,
		Month:           applied.MonthKey,
		Amount:          applied.Payment,
		Interest:        applied.Interest,
		Principal:       applied.Principal,
		PreviousBalance: applied.PreviousBalance,
		NewBalance:      applied.NewBalance,
		AppliedAt:       at,
	}

	s.events.LogPaymentApplied(ctx, a.ID, string(kind), string(ev.Month), ev.Amount.String(), ev.NewBalance.String())

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentApplied(ctx, ev); err != nil {
		s.events.LogError(ctx, "Failed to publish payment event", err, log.ComponentDebt, log.OpPublish,
			log.NewFields().WithPayment(a.ID, string(kind), string(ev.Month), ev.Amount.String(), ev.NewBalance.String()))
	}
}

func accountPrefix(id int64) string {
	return "bank:" + strconv.FormatInt(id, 10) + ":"
}

func planKey(id int64, month core.MonthKey, version int64) string {
	return accountPrefix(id) + string(month) + ":" + strconv.FormatInt(version, 10)
}

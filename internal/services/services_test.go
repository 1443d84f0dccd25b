package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/storage/memory"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recordingPublisher captures published events and optionally fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []core.PaymentEvent
	err    error
}

func (p *recordingPublisher) PublishPaymentApplied(_ context.Context, ev core.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []core.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.PaymentEvent(nil), p.events...)
}

// failingStore makes entry listings fail.
type failingStore struct {
	*memory.Store
}

var errStoreDown = errors.New("store down")

func (failingStore) ListEntries(context.Context, core.FlowKind, ports.EntryFilter) ([]core.EntryView, error) {
	return nil, errStoreDown
}

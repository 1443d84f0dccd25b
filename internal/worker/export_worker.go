// Package worker consumes payment events and appends them to the external
// payment log.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/ports"

	"google.golang.org/api/googleapi"
)

// Consumer is the message source, implemented by *amqp.Client.
type Consumer interface {
	ConsumePaymentEvents(ctx context.Context, prefetch int, handler func(context.Context, *amqp.PaymentAppliedMessage) error) error
}

// ExportWorker appends every payment event to a PaymentExporter. Message ids
// seen recently are remembered so a redelivered message is not written
// twice.
type ExportWorker struct {
	exporter   ports.PaymentExporter
	seen       *cache.LRUCache[string]
	logger     *log.Logger
	retryDelay time.Duration
}

func NewExportWorker(exporter ports.PaymentExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		exporter:   exporter,
		seen:       cache.NewLRUCache[string](1024, 24*time.Hour),
		logger:     logger.WithComponent(log.ComponentWorker),
		retryDelay: 5 * time.Second,
	}
}

// Seen exposes the dedup cache so it can be registered with a cache.Manager.
func (w *ExportWorker) Seen() cache.Cleaner { return w.seen }

// HandlePaymentMessage exports one message.
func (w *ExportWorker) HandlePaymentMessage(ctx context.Context, msg *amqp.PaymentAppliedMessage) error {
	if ref, ok := w.seen.Get(msg.MessageID); ok && msg.MessageID != "" {
		w.logger.InfoContext(ctx, "Skipping already exported message",
			log.FieldMessageID, msg.MessageID,
			log.FieldSheetsRef, ref)
		return nil
	}

	ref, err := w.exporter.AppendPayment(ctx, msg.Event())
	if err != nil {
		if isPermanent(err) {
			return fmt.Errorf("export payment for account %d: %w: %v", msg.AccountID, amqp.ErrPermanent, err)
		}
		return fmt.Errorf("export payment for account %d: %w", msg.AccountID, err)
	}

	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, ref)
	}
	w.logger.InfoContext(ctx, "Payment event exported",
		log.FieldMessageID, msg.MessageID,
		log.FieldAccountID, msg.AccountID,
		log.FieldSheetsRef, ref)
	return nil
}

// Run consumes until ctx is cancelled, restarting the consumer after
// failures.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, prefetch int) error {
	for {
		err := consumer.ConsumePaymentEvents(ctx, prefetch, w.HandlePaymentMessage)
		if ctx.Err() != nil {
			return nil
		}
		w.logger.ErrorContext(ctx, "Consumer stopped, restarting", log.FieldError, err, "delay", w.retryDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.retryDelay):
		}
	}
}

// isPermanent reports client-side API errors that retrying cannot fix.
func isPermanent(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	switch gerr.Code {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// Package memory is an in-process payment exporter. The worker uses it for
// dry runs and tests use it to inspect exported rows.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type Exporter struct {
	mu   sync.Mutex
	rows []core.PaymentEvent
	// Fail, when set, is returned by AppendPayment instead of storing.
	Fail error
}

var _ ports.PaymentExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// AppendPayment stores the event and returns a synthetic row reference.
func (e *Exporter) AppendPayment(_ context.Context, ev core.PaymentEvent) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Fail != nil {
		return "", e.Fail
	}
	e.rows = append(e.rows, ev)
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() []core.PaymentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.PaymentEvent(nil), e.rows...)
}

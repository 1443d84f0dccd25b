package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestExporterAppend(t *testing.T) {
	e := New()
	ref, err := e.AppendPayment(context.Background(), core.PaymentEvent{AccountID: 1, Kind: core.PaymentExtra})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, _ = e.AppendPayment(context.Background(), core.PaymentEvent{AccountID: 2, Kind: core.PaymentScheduled})
	if ref != "mem:2" {
		t.Fatalf("unexpected ref %q", ref)
	}

	rows := e.Rows()
	if len(rows) != 2 || rows[1].AccountID != 2 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rows[0].AccountID = 99
	if e.Rows()[0].AccountID != 1 {
		t.Fatal("Rows must return a copy")
	}
}

func TestExporterFail(t *testing.T) {
	e := New()
	e.Fail = errors.New("quota exceeded")
	if _, err := e.AppendPayment(context.Background(), core.PaymentEvent{}); err == nil {
		t.Fatal("expected error")
	}
	if len(e.Rows()) != 0 {
		t.Fatal("failed append must not store")
	}
}

package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		start Date
		n     int
		want  string
	}{
		{NewDate(2025, 1, 31), 1, "2025-02-28"},
		{NewDate(2025, 1, 31), 2, "2025-03-31"},
		{NewDate(2024, 1, 31), 1, "2024-02-29"},
		{NewDate(2024, 2, 29), 12, "2025-02-28"},
		{NewDate(2025, 11, 15), 3, "2026-02-15"},
	}
	for _, tt := range tests {
		if got := tt.start.AddMonths(tt.n).String(); got != tt.want {
			t.Errorf("%s + %d months = %s, want %s", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestMonthKey(t *testing.T) {
	if _, err := ParseMonthKey("2025-1"); err == nil {
		t.Fatal("expected error for non-canonical key")
	}
	if _, err := ParseMonthKey("2025-13"); err == nil {
		t.Fatal("expected error for month 13")
	}
	k, err := ParseMonthKey("2025-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := k.Add(1); got != "2026-01" {
		t.Errorf("Add(1) = %s", got)
	}
	if got := k.Add(-12); got != "2024-12" {
		t.Errorf("Add(-12) = %s", got)
	}
	if got := MonthKey("2025-02").Day(31).String(); got != "2025-02-28" {
		t.Errorf("Day(31) = %s", got)
	}
	if got := MonthKeyOf(time.Date(2025, 7, 19, 23, 0, 0, 0, time.UTC)); got != "2025-07" {
		t.Errorf("MonthKeyOf = %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}
	b, err := json.Marshal(wrapper{D: NewDate(2025, 3, 1)})
	if err != nil || string(b) != `{"d":"2025-03-01"}` {
		t.Fatalf("marshal = %s (err=%v)", b, err)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"d":"2026-02-05T00:00:00.000Z"}`), &w); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if w.D.String() != "2026-02-05" {
		t.Fatalf("unmarshal = %s", w.D)
	}
	if err := json.Unmarshal([]byte(`{"d":null}`), &w); err != nil || !w.D.IsZero() {
		t.Fatalf("null should reset date, got %v (err=%v)", w.D, err)
	}
}

package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func sampleEvent() core.PaymentEvent {
	return core.PaymentEvent{
		AccountID:       3,
		AccountName:     "Visa",
		Kind:            core.PaymentScheduled,
		Month:           "2025-01",
		Amount:          decimal.RequireFromString("200"),
		Interest:        decimal.RequireFromString("33.3333"),
		Principal:       decimal.RequireFromString("166.6667"),
		PreviousBalance: decimal.RequireFromString("1000"),
		NewBalance:      decimal.RequireFromString("833.3333"),
		AppliedAt:       time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Payments", "2025 Payments"},
		{" Payments ", "2025 Payments"},
		{"2024 Payments", "2024 Payments"},
		{"1800 Payments", "2025 1800 Payments"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, 2025); got != tt.want {
			t.Errorf("yearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestA1Range(t *testing.T) {
	if got := a1Range("2025 Payments", "A:J"); got != "'2025 Payments'!A:J" {
		t.Errorf("got %s", got)
	}
	if got := a1Range("Bob's", "A1"); got != "'Bob''s'!A1" {
		t.Errorf("got %s", got)
	}
}

func TestPaymentRow(t *testing.T) {
	row := paymentRow(sampleEvent())
	if len(row) != len(Header) {
		t.Fatalf("row has %d columns, header %d", len(row), len(Header))
	}
	want := []string{"2025-01-15 09:30:00", "3", "Visa", "scheduled", "2025-01", "200.00", "33.33", "166.67", "1000.00", "833.33"}
	for i, w := range want {
		if row[i] != w {
			t.Errorf("column %s = %v, want %s", Header[i], row[i], w)
		}
	}
}

func TestAppendPayment(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody gsheet.ValueRange

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"updates":{"updatedRange":"'2025 Payments'!A7:J7","updatedRows":1}}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(srv.Client()), goption.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	c := NewWithService(svc, "sheet-id", "Payments", nil)

	ref, err := c.AppendPayment(ctx, sampleEvent())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "'2025 Payments'!A7:J7" {
		t.Errorf("ref = %s", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %s", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=RAW") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Errorf("unexpected query %s", gotQuery)
	}
	if len(gotBody.Values) != 1 || gotBody.Values[0][2] != "Visa" {
		t.Errorf("unexpected body %+v", gotBody.Values)
	}
}

func TestAppendPaymentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(srv.Client()), goption.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := NewWithService(svc, "id", "", nil).AppendPayment(ctx, sampleEvent()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := (&Client{}).AppendPayment(ctx, sampleEvent()); err == nil {
		t.Fatal("expected error for uninitialized client")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), Options{}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	_, err := New(context.Background(), Options{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
	_, err = New(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

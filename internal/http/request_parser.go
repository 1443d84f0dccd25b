package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/services"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// jsonAmount accepts 12.34, "12.34" and "12,34". Negative amounts are
// rejected while decoding.
type jsonAmount struct {
	decimal.Decimal
	Set bool
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*a = jsonAmount{}
		return nil
	}
	raw := strings.Trim(string(b), `"`)
	d, err := core.ParseNonNegative(raw)
	if err != nil {
		return &core.ValidationError{Message: "invalid amount " + strconv.Quote(raw), Err: err}
	}
	a.Decimal, a.Set = d, true
	return nil
}

// decodeJSON reads a single JSON object into v. Unknown fields and trailing
// data are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			if ve.Field == "" {
				ve.Field = "body"
			}
			return ve
		}
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Field: "body", Message: "request body is empty"}
		}
		return &core.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error(), Err: err}
	}
	if dec.More() {
		return &core.ValidationError{Field: "body", Message: "unexpected data after JSON object"}
	}
	return nil
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: name, Message: "invalid id " + strconv.Quote(raw)}
	}
	return id, nil
}

// monthParam parses an optional YYYY-MM value. Empty yields "".
func monthParam(raw, field string) (core.MonthKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	key, err := core.ParseMonthKey(raw)
	if err != nil {
		return "", &core.ValidationError{Field: field, Message: err.Error(), Err: err}
	}
	return key, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type entryRequest struct {
	Date    core.Date  `json:"date"`
	Amount  jsonAmount `json:"amount"`
	Settled bool       `json:"settled"`
}

// flowRequest is the body of income and expense create/update calls.
type flowRequest struct {
	Name            string         `json:"name"`
	Amount          jsonAmount     `json:"amount"`
	StartDate       core.Date      `json:"startDate"`
	IsRecurring     bool           `json:"isRecurring"`
	Frequency       core.Frequency `json:"frequency"`
	EndDate         core.Date      `json:"endDate"`
	Entries         []entryRequest `json:"entries"`
	PreserveSettled bool           `json:"preserveSettled"`
}

func (req flowRequest) toInput() (services.FlowInput, error) {
	in := services.FlowInput{
		Name: sanitizeInput(req.Name),
		Spec: core.RecurrenceSpec{
			StartDate:   req.StartDate,
			IsRecurring: req.IsRecurring,
			Frequency:   core.Frequency(strings.ToLower(string(req.Frequency))),
			EndDate:     req.EndDate,
		},
		PreserveSettled: req.PreserveSettled,
	}
	if req.Amount.Set {
		in.Spec.Amount = core.NewAmount(req.Amount.Decimal)
	}
	for i, e := range req.Entries {
		if !e.Amount.Set {
			return services.FlowInput{}, &core.ValidationError{
				Field:   "entries[" + strconv.Itoa(i) + "].amount",
				Message: "amount is required",
			}
		}
		in.Entries = append(in.Entries, core.ScheduleEntry{Date: e.Date, Amount: e.Amount.Decimal, Settled: e.Settled})
	}
	return in, nil
}

// settleRequest toggles an entry. isReceived and isPaid are accepted as
// aliases of settled for incomes and expenses.
type settleRequest struct {
	Settled    *bool `json:"settled"`
	IsReceived *bool `json:"isReceived"`
	IsPaid     *bool `json:"isPaid"`
}

func (req settleRequest) value() (bool, error) {
	for _, v := range []*bool{req.Settled, req.IsReceived, req.IsPaid} {
		if v != nil {
			return *v, nil
		}
	}
	return false, &core.ValidationError{Field: "settled", Message: "settled is required"}
}

// bankRequest is the body of debt account create/update calls.
type bankRequest struct {
	Name             string                       `json:"name"`
	DebtType         string                       `json:"debtType"`
	TotalDebt        jsonAmount                   `json:"totalDebt"`
	InterestRate     jsonAmount                   `json:"interestRate"`
	InterestType     core.InterestType            `json:"interestType"`
	MinPaymentAmount jsonAmount                   `json:"minPaymentAmount"`
	MinPaymentType   core.MinPaymentType          `json:"minPaymentType"`
	PaymentDueDay    int                          `json:"paymentDueDay"`
	IsActive         *bool                        `json:"isActive"`
	CustomPayments   map[core.MonthKey]jsonAmount `json:"customPayments"`
	PaidMonths       []core.MonthKey              `json:"paidMonths"`
	Version          int64                        `json:"version"`
}

func (req bankRequest) toAccount(id int64) (core.DebtAccount, error) {
	if !req.TotalDebt.Set {
		return core.DebtAccount{}, &core.ValidationError{Field: "totalDebt", Message: "total debt is required"}
	}
	if !req.MinPaymentAmount.Set {
		return core.DebtAccount{}, &core.ValidationError{Field: "minPaymentAmount", Message: "minimum payment is required"}
	}

	a := core.DebtAccount{
		ID:               id,
		Name:             sanitizeInput(req.Name),
		DebtType:         sanitizeInput(req.DebtType),
		TotalDebt:        req.TotalDebt.Decimal,
		InterestRate:     req.InterestRate.Decimal,
		InterestType:     req.InterestType,
		MinPaymentAmount: req.MinPaymentAmount.Decimal,
		MinPaymentType:   req.MinPaymentType,
		PaymentDueDay:    req.PaymentDueDay,
		IsActive:         req.IsActive == nil || *req.IsActive,
		PaidMonths:       req.PaidMonths,
		Version:          req.Version,
	}
	if req.CustomPayments != nil {
		a.CustomPayments = make(map[core.MonthKey]decimal.Decimal, len(req.CustomPayments))
		for k, v := range req.CustomPayments {
			a.CustomPayments[k] = v.Decimal
		}
	}
	return a, nil
}

type payMonthRequest struct {
	Month string `json:"month"`
}

type amountRequest struct {
	Amount jsonAmount `json:"amount"`
}

func (req amountRequest) value() (decimal.Decimal, error) {
	if !req.Amount.Set {
		return decimal.Zero, &core.ValidationError{Field: "amount", Message: "amount is required"}
	}
	return req.Amount.Decimal, nil
}

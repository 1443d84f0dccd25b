package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	monthKeyLayout = "2006-01"
)

var (
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidMonthKey = errors.New("invalid month key, expected YYYY-MM")
)

// Date is a calendar day at UTC midnight. The zero value means "not set".
type Date struct {
	time.Time
}

// MonthKey identifies a billing period as "YYYY-MM".
type MonthKey string

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's wall clock date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Full RFC 3339 timestamps are accepted
// too and reduced to their date part.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// AddMonths moves n calendar months keeping the day of month, clamped to the
// last day of the target month (Jan 31 + 1 month = Feb 28).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Date{Time: first.AddDate(0, 0, clampDay(first.Year(), first.Month(), d.Day())-1)}
}

// MonthKey returns the calendar month of the date.
func (d Date) MonthKey() MonthKey {
	return MonthKey(d.Format(monthKeyLayout))
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthKeyOf returns the calendar month containing t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

func ParseMonthKey(s string) (MonthKey, error) {
	k := MonthKey(s)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k MonthKey) Validate() error {
	t, err := time.Parse(monthKeyLayout, string(k))
	if err != nil || t.Format(monthKeyLayout) != string(k) {
		return ErrInvalidMonthKey
	}
	return nil
}

// FirstDay returns the first calendar day of the month. Invalid keys yield
// the zero Date.
func (k MonthKey) FirstDay() Date {
	t, err := time.Parse(monthKeyLayout, string(k))
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

// Day returns the given day of the month, clamped to the month length.
func (k MonthKey) Day(day int) Date {
	first := k.FirstDay()
	if first.IsZero() {
		return first
	}
	return first.AddDays(clampDay(first.Year(), first.Month(), day) - 1)
}

// Add returns the key n months later (or earlier for negative n).
func (k MonthKey) Add(n int) MonthKey {
	first := k.FirstDay()
	if first.IsZero() {
		return k
	}
	return MonthKey(first.AddDate(0, n, 0).Format(monthKeyLayout))
}

func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}

// Package core provides the domain model of the tracker.
//
// This file contains helpers for parsing monetary amounts from user input and
// for presenting them. Amounts travel as decimal strings on the wire and are
// only rounded when presented.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaidOffThreshold is the balance at or below which a debt counts as settled.
var PaidOffThreshold = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a strictly positive decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. No
// rounding is applied: "12.345" stays 12.345.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseNonNegative(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseNonNegative parses a decimal that may be zero, such as a balance or an
// interest rate.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Present rounds an amount half away from zero to cents for display and for
// JSON view models.
func Present(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns pct percent of d.
func Percent(d, pct decimal.Decimal) decimal.Decimal {
	return d.Mul(pct).Shift(-2)
}

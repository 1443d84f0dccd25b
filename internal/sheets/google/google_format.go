package google

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Header is the column layout written by AppendPayment.
var Header = []string{
	"Date", "Account ID", "Account", "Kind", "Month",
	"Amount", "Interest", "Principal", "Previous balance", "New balance",
}

// paymentRow formats ev for the sheet. Amounts are written as plain decimal
// strings so no precision is lost to spreadsheet floats.
func paymentRow(ev core.PaymentEvent) []any {
	return []any{
		ev.AppliedAt.UTC().Format("2006-01-02 15:04:05"),
		strconv.FormatInt(ev.AccountID, 10),
		ev.AccountName,
		string(ev.Kind),
		string(ev.Month),
		core.Present(ev.Amount).StringFixed(2),
		core.Present(ev.Interest).StringFixed(2),
		core.Present(ev.Principal).StringFixed(2),
		core.Present(ev.PreviousBalance).StringFixed(2),
		core.Present(ev.NewBalance).StringFixed(2),
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// a1Range quotes the sheet name for A1 notation.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

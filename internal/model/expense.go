// Package model defines the expense records shared across farelog.
package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and wire format for expense dates.
const DateLayout = "2006-01-02"

// Columns is the canonical column set of the expense history.
var Columns = []string{"Employee", "Source", "Destination", "Fare", "Date", "Month"}

// Expense is one logged trip. Month is derived from Date when the record is
// created and stored alongside it; it is never recomputed on read.
type Expense struct {
	Employee    string          `json:"employee"`
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	Fare        decimal.Decimal `json:"fare"`
	Date        time.Time       `json:"date"`
	Month       string          `json:"month"`
}

// NewExpense builds a record and derives its month from date.
func NewExpense(employee, source, destination string, fare decimal.Decimal, date time.Time) Expense {
	day := DateOnly(date)
	return Expense{
		Employee:    employee,
		Source:      source,
		Destination: destination,
		Fare:        fare,
		Date:        day,
		Month:       MonthName(day),
	}
}

// DateString returns the record date as YYYY-MM-DD.
func (e Expense) DateString() string {
	return e.Date.Format(DateLayout)
}

// MonthName returns the full English month name, e.g. "October".
func MonthName(t time.Time) string {
	return t.Month().String()
}

// DateOnly truncates t to a calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// DefaultCurrencySymbol prefixes formatted amounts when none is configured.
const DefaultCurrencySymbol = "$"

// FormatMoney renders d with exactly two decimals and a leading symbol,
// e.g. "$123.45".
func FormatMoney(d decimal.Decimal, symbol string) string {
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// NormalizeEmployee trims the name and upper-cases its first letter while
// lower-casing the rest, so "bob", "BOB" and "BoB" all become "Bob".
func NormalizeEmployee(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/farelog/internal/model"
)

// FormatFare formats an amount with two decimals, thousands separators and
// a currency symbol, e.g. "$1,234.50". An empty symbol means "$".
func FormatFare(d decimal.Decimal, symbol string) string {
	if symbol == "" {
		symbol = model.DefaultCurrencySymbol
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + symbol + fixed
	}
	return sign + symbol + FormatNumber(n) + "." + frac
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatTrips returns "1 trip" or "N trips".
func FormatTrips(n int) string {
	if n == 1 {
		return "1 trip"
	}
	return fmt.Sprintf("%s trips", FormatNumber(int64(n)))
}

// FormatRoute joins a source and destination with an arrow.
func FormatRoute(source, destination string) string {
	return source + " → " + destination
}

package tax

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the precision every monetary value carries on the wire.
// Amounts are rounded at this precision so repeated calculations over the
// same inputs reconcile exactly.
const Places = 6

// ParseAmount converts a stored decimal string into a decimal value.
// Malformed or empty input degrades to zero so a single bad field can never
// abort a totals calculation.
func ParseAmount(value string) decimal.Decimal {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// Round snaps an amount to the engine precision.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(Places)
}

// FormatAmount renders an amount as the canonical decimal string.
func FormatAmount(value decimal.Decimal) string {
	return Round(value).String()
}

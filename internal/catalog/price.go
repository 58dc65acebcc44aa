package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice interprets a raw catalog price. Empty or malformed values report ok=false.
func ParsePrice(raw *string) (decimal.Decimal, bool) {
	if raw == nil {
		return decimal.Zero, false
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// PriceOrZero returns the parsed price, or zero when it cannot be read.
func PriceOrZero(raw *string) decimal.Decimal {
	d, _ := ParsePrice(raw)
	return d
}

// FormatPrice renders a price with two decimals, the precision stored in the catalog.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads a monetary cell. Numbers pass through; strings are reduced
// to digits, sign and decimal point. Anything else is zero.
func parseAmount(cell any) decimal.Decimal {
	switch v := cell.(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case decimal.Decimal:
		return v
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == '-' || r == '.' {
				return r
			}
			return -1
		}, v)
		if cleaned == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// present reports whether a monetary cell carries any value at all.
func present(cell any) bool {
	return cellText(cell) != ""
}

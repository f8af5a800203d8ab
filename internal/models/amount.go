package models

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAmountChars = regexp.MustCompile(`[^0-9.]`)

// ParseAmount reads a free-text money value such as "Rs. 5,000" after
// dropping everything but digits and dots. Unparseable input is zero.
func ParseAmount(s string) decimal.Decimal {
	// "Rs. 500" leaves a leading dot behind
	cleaned := strings.Trim(nonAmountChars.ReplaceAllString(s, ""), ".")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

package validation

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// ValidPhone reports whether number parses as a valid number for region
// (ISO 3166 alpha-2, e.g. "IN"). An empty region disables the check.
func ValidPhone(number, region string) bool {
	if region == "" {
		return true
	}
	num, err := libphonenumber.Parse(strings.TrimSpace(number), strings.ToUpper(region))
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

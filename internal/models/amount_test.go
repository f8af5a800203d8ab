package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5000", "5000"},
		{"Rs. 5,000", "5000"},
		{"₹ 1,250.50", "1250.5"},
		{"5000/-", "5000"},
		{"", "0"},
		{"CHECK_MANUALLY", "0"},
		{"1.2.3", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in).String())
		})
	}
}

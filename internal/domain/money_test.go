package domain

import (
	"math"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		units    int64
		currency string
		want     string
	}{
		{"yen", 1000, "JPY", "¥1,000"},
		{"yen zero", 0, "JPY", "¥0"},
		{"dollars", 25, "USD", "$25.00"},
		{"unknown falls back to yen", 50, "XXX_NOPE", "¥50"},
		{"yen beyond float precision", 9007199254740993, "JPY", "¥9,007,199,254,740,993"},
		{"dollars beyond float precision", 9007199254740993, "USD", "$9,007,199,254,740,993.00"},
		{"dollars at max int64", math.MaxInt64, "USD", "$9,223,372,036,854,775,807.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.units, tt.currency); got != tt.want {
				t.Errorf("FormatAmount(%d, %q) = %q, want %q", tt.units, tt.currency, got, tt.want)
			}
		})
	}
}

func TestValidCurrency(t *testing.T) {
	if !ValidCurrency("JPY") {
		t.Error("JPY should be valid")
	}
	if ValidCurrency("NOPE") {
		t.Error("NOPE should not be valid")
	}
}

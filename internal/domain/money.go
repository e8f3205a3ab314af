package domain

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = money.JPY

// ValidCurrency reports whether code is an ISO 4217 code known to go-money.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FormatAmount renders whole currency units for display, e.g. "¥1,000".
func FormatAmount(units int64, currency string) string {
	if !ValidCurrency(currency) {
		currency = DefaultCurrency
	}
	c := money.GetCurrency(currency)

	scale := int64(1)
	for i := 0; i < c.Fraction; i++ {
		scale *= 10
	}
	if units <= math.MaxInt64/scale && units >= math.MinInt64/scale {
		return money.New(units*scale, currency).Display()
	}

	// Too large for minor units: format the whole units and print the
	// fraction as zeros.
	template := c.Template
	if c.Fraction > 0 {
		template = strings.Replace(template, "1", "1"+c.Decimal+strings.Repeat("0", c.Fraction), 1)
	}
	return money.NewFormatter(0, c.Decimal, c.Thousand, c.Grapheme, template).Format(units)
}

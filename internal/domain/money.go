package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const centPrecision = 2

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// SafeParse parses a string into a decimal amount, returning zero for
// invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatUSD renders an amount as a dollar string with thousands grouping,
// rounded to cents: "$1,234.50".
func FormatUSD(d decimal.Decimal) string {
	f, _ := d.Round(centPrecision).Float64()
	return usdPrinter.Sprintf("$%.2f", f)
}

// FormatPercent renders a ratio as a percentage with two decimal places:
// 0.15 becomes "15.00%".
func FormatPercent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

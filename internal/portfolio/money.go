package portfolio

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatUSD renders d as US dollars, rounded to cents: "$1,234.56".
func FormatUSD(d decimal.Decimal) string {
	cur := *money.New(0, money.USD).Currency()
	cents := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(cents.IntPart())
}

// FormatPct renders a percentage with two decimals: "12.50%".
func FormatPct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

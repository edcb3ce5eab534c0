// Package portfolio is the client-side holdings book: valuation, PnL,
// allocation and the application of resolved prices.
package portfolio

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"priceboard/internal/asset"
)

// Holding is one position. Entry is the cost basis per unit, Current the last
// resolved price per unit (possibly stale or zero).
type Holding struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Symbol  string          `json:"symbol"`
	Type    asset.Type      `json:"type"`
	Entry   decimal.Decimal `json:"entry"`
	Current decimal.Decimal `json:"current"`
	Qty     decimal.Decimal `json:"qty"`
}

// NewHolding returns a holding with a fresh id and a normalized symbol.
func NewHolding(name, symbol string, t asset.Type, entry, current, qty decimal.Decimal) Holding {
	return Holding{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(name),
		Symbol:  asset.NormalizeSymbol(symbol),
		Type:    t,
		Entry:   entry,
		Current: current,
		Qty:     qty,
	}
}

// Blank is the row added by "add asset": no symbol, type Other, all zeros.
func Blank() Holding {
	return NewHolding("", "", asset.Other, decimal.Zero, decimal.Zero, decimal.Zero)
}

// Defaults is the starter book shown before the user enters anything.
func Defaults() []Holding {
	d := decimal.RequireFromString
	return []Holding{
		NewHolding("Bitcoin", "BTC", asset.Crypto, d("42000"), d("46500"), d("0.35")),
		NewHolding("Apple", "AAPL", asset.Stock, d("168"), d("185"), d("18")),
		NewHolding("Gold", "XAU", asset.Metal, d("1995"), d("2038"), d("1.4")),
		NewHolding("Ethereum", "ETH", asset.Crypto, d("2200"), d("2450"), d("2.1")),
	}
}

// ParseAmount reads a user-typed number. Anything malformed, NaN or infinite
// is zero; it never fails.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FromFloat converts a provider price, mapping NaN and infinities to false.
func FromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// Cost is Entry*Qty.
func (h Holding) Cost() decimal.Decimal { return h.Entry.Mul(h.Qty) }

// Value is Current*Qty.
func (h Holding) Value() decimal.Decimal { return h.Current.Mul(h.Qty) }

// PnL is (Current-Entry)*Qty.
func (h Holding) PnL() decimal.Decimal { return h.Current.Sub(h.Entry).Mul(h.Qty) }

// PnLPct is PnL relative to cost in percent, zero when there is no cost.
func (h Holding) PnLPct() decimal.Decimal { return pct(h.PnL(), h.Cost()) }

// Label is the symbol, or "Untitled" for a blank row.
func (h Holding) Label() string {
	if h.Symbol == "" {
		return "Untitled"
	}
	return h.Symbol
}

func pct(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole)
}

// Suggestions are the symbols offered while typing.
var Suggestions = []string{
	"BTC", "ETH", "SOL", "XRP", "ADA", "BNB", "DOGE", "LTC", "AVAX", "MATIC", "LINK", "DOT", "ATOM", "SHIB",
	"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "SPY", "QQQ", "DIA", "IWM", "GLD", "SLV",
	"XAU", "XAG", "XPT", "XPD",
	"EURUSD", "USDJPY", "GBPUSD", "AUDUSD", "USDCAD", "USDCHF", "NZDUSD",
}

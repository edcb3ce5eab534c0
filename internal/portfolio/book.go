package portfolio

import (
	"slices"

	"github.com/shopspring/decimal"

	"priceboard/internal/asset"
	"priceboard/internal/classify"
)

// Book is an ordered set of holdings.
type Book struct {
	Holdings []Holding `json:"holdings"`
}

// Add appends h and returns its id.
func (b *Book) Add(h Holding) string {
	b.Holdings = append(b.Holdings, h)
	return h.ID
}

// Remove drops the holding with id and reports whether it existed.
func (b *Book) Remove(id string) bool {
	n := len(b.Holdings)
	b.Holdings = slices.DeleteFunc(b.Holdings, func(h Holding) bool { return h.ID == id })
	return len(b.Holdings) != n
}

// Find returns the holding with id.
func (b *Book) Find(id string) (*Holding, bool) {
	for i := range b.Holdings {
		if b.Holdings[i].ID == id {
			return &b.Holdings[i], true
		}
	}
	return nil, false
}

// Requests is the /prices payload for the book: one entry per holding with a
// non-blank symbol, upper-cased.
func (b *Book) Requests() []classify.Request {
	out := make([]classify.Request, 0, len(b.Holdings))
	for _, h := range b.Holdings {
		sym := asset.NormalizeSymbol(h.Symbol)
		if sym == "" {
			continue
		}
		out = append(out, classify.Request{Symbol: sym, Type: h.Type.String()})
	}
	return out
}

// Totals is the portfolio summary.
type Totals struct {
	Cost   decimal.Decimal
	Value  decimal.Decimal
	PnL    decimal.Decimal
	PnLPct decimal.Decimal
}

// Totals sums cost and value over every holding.
func (b *Book) Totals() Totals {
	var t Totals
	for _, h := range b.Holdings {
		t.Cost = t.Cost.Add(h.Cost())
		t.Value = t.Value.Add(h.Value())
	}
	t.PnL = t.Value.Sub(t.Cost)
	t.PnLPct = pct(t.PnL, t.Cost)
	return t
}

// Allocation is a holding's share of the book's current value.
type Allocation struct {
	Holding Holding
	Value   decimal.Decimal
	Pct     decimal.Decimal
}

// Allocations returns one entry per holding, in book order. Percentages are
// zero when the book has no value.
func (b *Book) Allocations() []Allocation {
	total := b.Totals().Value
	out := make([]Allocation, 0, len(b.Holdings))
	for _, h := range b.Holdings {
		v := h.Value()
		out = append(out, Allocation{Holding: h, Value: v, Pct: pct(v, total)})
	}
	return out
}

// Source says where an applied price came from.
type Source int

const (
	// Unchanged means neither the response nor the store had a price.
	Unchanged Source = iota
	// Fresh prices come from the current /prices response.
	Fresh
	// LastKnown prices come from the local store.
	LastKnown
)

// Applied reports what Apply did, per symbol.
type Applied struct {
	Fresh     []string
	LastKnown []string
	Unchanged []string
}

// Apply sets Current on every holding from prices, falling back to lastKnown
// (may be nil) for symbols the response could not price. Non-finite prices are
// ignored. A symbol held twice is reported once.
func (b *Book) Apply(prices map[string]float64, lastKnown func(symbol string) (float64, bool)) Applied {
	var res Applied
	seen := map[string]Source{}
	for i := range b.Holdings {
		h := &b.Holdings[i]
		sym := asset.NormalizeSymbol(h.Symbol)
		if sym == "" {
			continue
		}
		src := Unchanged
		if p, ok := prices[sym]; ok {
			if d, ok := FromFloat(p); ok {
				h.Current, src = d, Fresh
			}
		}
		if src == Unchanged && lastKnown != nil {
			if p, ok := lastKnown(sym); ok {
				if d, ok := FromFloat(p); ok {
					h.Current, src = d, LastKnown
				}
			}
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = src
		switch src {
		case Fresh:
			res.Fresh = append(res.Fresh, sym)
		case LastKnown:
			res.LastKnown = append(res.LastKnown, sym)
		default:
			res.Unchanged = append(res.Unchanged, sym)
		}
	}
	return res
}

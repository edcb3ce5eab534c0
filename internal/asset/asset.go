// Package asset holds the asset-type enum and symbol helpers shared by the
// classifier, the provider adapters and the client-side portfolio.
package asset

import (
	"strings"
	"unicode"
)

// Type is the asset class of a holding. It selects the provider that prices it.
type Type int

const (
	Other Type = iota
	Crypto
	Stock
	Metal
	Forex
)

var typeLabels = [...]string{
	Other:  "Other",
	Crypto: "Crypto",
	Stock:  "Stock",
	Metal:  "Metal",
	Forex:  "Forex",
}

// Types lists every asset type in display order.
var Types = []Type{Crypto, Stock, Metal, Forex, Other}

// String returns the wire label of t ("Crypto", "Stock", ...).
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeLabels) {
		return typeLabels[Other]
	}
	return typeLabels[t]
}

// ParseType maps a wire label to a Type. Matching is exact after trimming;
// anything unrecognized is Other.
func ParseType(s string) Type {
	s = strings.TrimSpace(s)
	for i, l := range typeLabels {
		if l == s {
			return Type(i)
		}
	}
	return Other
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. It never fails.
func (t *Type) UnmarshalText(b []byte) error {
	*t = ParseType(string(b))
	return nil
}

// NormalizeSymbol trims s and upper-cases it.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Pair is a forex currency pair quoted as Quote per Base.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string { return p.Base + p.Quote }

// ParsePair strips every non-letter from symbol and splits the remaining
// six letters into base and quote codes. Any other length is rejected.
func ParsePair(symbol string) (Pair, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, symbol)
	if len(cleaned) != 6 {
		return Pair{}, false
	}
	return Pair{Base: cleaned[:3], Quote: cleaned[3:]}, true
}

// Metals is the set of supported precious-metal codes.
var Metals = map[string]struct{}{
	"XAU": {},
	"XAG": {},
	"XPT": {},
	"XPD": {},
}

// IsMetal reports whether symbol is one of the supported metal codes.
func IsMetal(symbol string) bool {
	_, ok := Metals[symbol]
	return ok
}

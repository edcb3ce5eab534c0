// Package classify partitions requested holdings into per-provider batches.
package classify

import (
	"priceboard/internal/asset"
)

// Per-symbol classification failures. These strings are part of the /prices contract.
const (
	ErrUnknownCrypto   = "Unknown crypto"
	ErrUnknownMetal    = "Unknown metal"
	ErrInvalidPair     = "Invalid FX pair"
	ErrUnsupportedType = "Unsupported type"
)

// CryptoIDs maps ticker symbols to CoinGecko coin ids.
var CryptoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"BNB":   "binancecoin",
	"DOGE":  "dogecoin",
	"LTC":   "litecoin",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"POL":   "polygon-ecosystem-token",
	"LINK":  "chainlink",
	"DOT":   "polkadot",
	"ATOM":  "cosmos",
	"SHIB":  "shiba-inu",
}

// Request is one holding as sent by the client.
type Request struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

// ForexPair ties a requested symbol to its parsed currency pair.
type ForexPair struct {
	Symbol string
	asset.Pair
}

// Batches is the classifier output: the symbols each provider must resolve
// plus the symbols rejected up front.
type Batches struct {
	// Crypto maps symbol to CoinGecko id.
	Crypto map[string]string
	Stocks []string
	Metals []string
	Forex  []ForexPair
	// Errors holds classification failures keyed by symbol.
	Errors map[string]string
	// Symbols lists every accepted or rejected symbol in request order.
	Symbols []string
}

// Empty reports whether no provider has anything to resolve.
func (b Batches) Empty() bool {
	return len(b.Crypto) == 0 && len(b.Stocks) == 0 && len(b.Metals) == 0 && len(b.Forex) == 0
}

// Classify dispatches each request on its asset type. It never fails: every
// non-empty symbol ends up either in a batch or in Errors. Empty symbols are
// dropped, and a repeated symbol keeps its first classification.
func Classify(reqs []Request) Batches {
	b := Batches{
		Crypto: map[string]string{},
		Errors: map[string]string{},
	}
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		symbol := asset.NormalizeSymbol(r.Symbol)
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		b.Symbols = append(b.Symbols, symbol)

		switch asset.ParseType(r.Type) {
		case asset.Crypto:
			id, ok := CryptoIDs[symbol]
			if !ok {
				b.Errors[symbol] = ErrUnknownCrypto
				continue
			}
			b.Crypto[symbol] = id
		case asset.Stock:
			b.Stocks = append(b.Stocks, symbol)
		case asset.Metal:
			if !asset.IsMetal(symbol) {
				b.Errors[symbol] = ErrUnknownMetal
				continue
			}
			b.Metals = append(b.Metals, symbol)
		case asset.Forex:
			pair, ok := asset.ParsePair(symbol)
			if !ok {
				b.Errors[symbol] = ErrInvalidPair
				continue
			}
			b.Forex = append(b.Forex, ForexPair{Symbol: symbol, Pair: pair})
		case asset.Other:
			b.Errors[symbol] = ErrUnsupportedType
		}
	}
	return b
}

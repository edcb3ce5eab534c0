package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"priceboard/internal/asset"
	"priceboard/internal/classify"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"42":       "42",
		" 0.35 ":   "0.35",
		"1,234.5":  "1234.5",
		"":         "0",
		"abc":      "0",
		"NaN":      "0",
		"Infinity": "0",
		"-3":       "-3",
	}
	for in, want := range cases {
		require.True(t, d(want).Equal(ParseAmount(in)), "ParseAmount(%q)", in)
	}
}

func TestFromFloat(t *testing.T) {
	_, ok := FromFloat(0)
	require.True(t, ok)
	v, ok := FromFloat(2127.66)
	require.True(t, ok)
	require.True(t, d("2127.66").Equal(v))
}

func TestTotals_DefaultBook(t *testing.T) {
	b := &Book{Holdings: Defaults()}

	got := b.Totals()

	// cost: 42000*0.35 + 168*18 + 1995*1.4 + 2200*2.1 = 14700 + 3024 + 2793 + 4620
	require.True(t, d("25137").Equal(got.Cost), got.Cost.String())
	// value: 46500*0.35 + 185*18 + 2038*1.4 + 2450*2.1 = 16275 + 3330 + 2853.2 + 5145
	require.True(t, d("27603.2").Equal(got.Value), got.Value.String())
	require.True(t, d("2466.2").Equal(got.PnL))
	require.Equal(t, "9.81", got.PnLPct.StringFixed(2))
}

func TestTotals_ZeroCost(t *testing.T) {
	b := &Book{Holdings: []Holding{Blank()}}

	got := b.Totals()

	require.True(t, got.PnLPct.IsZero())
	require.True(t, got.Cost.IsZero())
}

func TestAllocations(t *testing.T) {
	b := &Book{}
	b.Add(NewHolding("", "a", asset.Stock, d("1"), d("30"), d("1")))
	b.Add(NewHolding("", "b", asset.Stock, d("1"), d("10"), d("7")))

	got := b.Allocations()

	require.Len(t, got, 2)
	require.Equal(t, "30.00", got[0].Pct.StringFixed(2))
	require.Equal(t, "70.00", got[1].Pct.StringFixed(2))
	require.Equal(t, "A", got[0].Holding.Symbol)
}

func TestAllocations_EmptyValue(t *testing.T) {
	b := &Book{Holdings: []Holding{Blank(), Blank()}}

	for _, a := range b.Allocations() {
		require.True(t, a.Pct.IsZero())
	}
}

func TestBook_AddRemoveFind(t *testing.T) {
	b := &Book{}
	id := b.Add(Blank())
	other := b.Add(Blank())
	require.NotEqual(t, id, other)

	h, ok := b.Find(id)
	require.True(t, ok)
	h.Symbol = "SOL"
	require.Equal(t, "SOL", b.Holdings[0].Symbol)

	require.True(t, b.Remove(id))
	require.False(t, b.Remove(id))
	require.Len(t, b.Holdings, 1)
}

func TestRequests_SkipsBlankAndNormalizes(t *testing.T) {
	b := &Book{Holdings: []Holding{
		{Symbol: " btc ", Type: asset.Crypto},
		{Symbol: "  ", Type: asset.Stock},
		{Symbol: "eurusd", Type: asset.Forex},
	}}

	require.Equal(t, []classify.Request{
		{Symbol: "BTC", Type: "Crypto"},
		{Symbol: "EURUSD", Type: "Forex"},
	}, b.Requests())
}

func TestApply(t *testing.T) {
	b := &Book{Holdings: []Holding{
		{Symbol: "BTC", Current: d("1")},
		{Symbol: "AAPL", Current: d("2")},
		{Symbol: "XAU", Current: d("3")},
		{Symbol: "BTC", Current: d("4")},
		{Symbol: ""},
	}}
	lastKnown := func(sym string) (float64, bool) {
		if sym == "AAPL" {
			return 185.5, true
		}
		return 0, false
	}

	got := b.Apply(map[string]float64{"BTC": 64000}, lastKnown)

	require.Equal(t, Applied{Fresh: []string{"BTC"}, LastKnown: []string{"AAPL"}, Unchanged: []string{"XAU"}}, got)
	require.True(t, d("64000").Equal(b.Holdings[0].Current))
	require.True(t, d("185.5").Equal(b.Holdings[1].Current))
	require.True(t, d("3").Equal(b.Holdings[2].Current))
	require.True(t, d("64000").Equal(b.Holdings[3].Current))
}

func TestFormatUSD(t *testing.T) {
	require.Equal(t, "$1,234.57", FormatUSD(d("1234.567")))
	require.Equal(t, "$0.00", FormatUSD(decimal.Zero))
	require.Equal(t, "-$12.50", FormatUSD(d("-12.5")))
	require.Equal(t, "9.81%", FormatPct(d("9.8109")))
}

func TestHoldingsFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.yaml")
	src := &Book{Holdings: Defaults()}

	require.NoError(t, SaveFile(path, src))
	got, err := LoadFile(path)

	require.NoError(t, err)
	require.Len(t, got.Holdings, 4)
	for i, h := range got.Holdings {
		want := src.Holdings[i]
		require.Equal(t, want.ID, h.ID)
		require.Equal(t, want.Symbol, h.Symbol)
		require.Equal(t, want.Type, h.Type)
		require.True(t, want.Qty.Equal(h.Qty))
		require.True(t, want.Entry.Equal(h.Entry))
	}
}

func TestLoadFile_MalformedNumbersAreZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.yaml")
	body := "holdings:\n  - symbol: sol\n    type: Crypto\n    entry: twelve\n    qty: 3\n  - symbol: gold\n    type: Bullion\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	got, err := LoadFile(path)

	require.NoError(t, err)
	require.Len(t, got.Holdings, 2)
	require.Equal(t, "SOL", got.Holdings[0].Symbol)
	require.True(t, got.Holdings[0].Entry.IsZero())
	require.True(t, d("3").Equal(got.Holdings[0].Qty))
	require.NotEmpty(t, got.Holdings[0].ID)
	require.Equal(t, asset.Other, got.Holdings[1].Type)
}

func TestLoadFile_MissingGivesDefaults(t *testing.T) {
	got, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))

	require.NoError(t, err)
	require.Len(t, got.Holdings, 4)
	require.Equal(t, "BTC", got.Holdings[0].Symbol)
}

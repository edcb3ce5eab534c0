package asset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType_KnownAndGarbage(t *testing.T) {
	t.Parallel()

	for _, ty := range Types {
		require.Equal(t, ty, ParseType(ty.String()))
	}
	require.Equal(t, Crypto, ParseType("  Crypto "))
	require.Equal(t, Other, ParseType("crypto"), "labels are case-sensitive")
	require.Equal(t, Other, ParseType("Bond"))
	require.Equal(t, Other, ParseType(""))
	require.Equal(t, "Other", Type(42).String())
}

func TestType_JSONRoundTripsThroughLabel(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct{ T Type }{Metal})
	require.NoError(t, err)
	require.JSONEq(t, `{"T":"Metal"}`, string(b))

	var v struct{ T Type }
	require.NoError(t, json.Unmarshal([]byte(`{"T":"nonsense"}`), &v))
	require.Equal(t, Other, v.T)
}

func TestParsePair(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Pair
		ok   bool
	}{
		{"EURUSD", Pair{"EUR", "USD"}, true},
		{"EUR/USD", Pair{"EUR", "USD"}, true},
		{"usd-jpy", Pair{"USD", "JPY"}, true},
		{"EURUS", Pair{}, false},
		{"EURUSDX", Pair{}, false},
		{"12345678", Pair{}, false},
		{"", Pair{}, false},
	}
	for _, tc := range cases {
		got, ok := ParsePair(tc.in)
		require.Equalf(t, tc.ok, ok, "ParsePair(%q)", tc.in)
		require.Equalf(t, tc.want, got, "ParsePair(%q)", tc.in)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()
	require.Equal(t, "AAPL", NormalizeSymbol("  aapl\t"))
	require.True(t, IsMetal("XAU"))
	require.False(t, IsMetal("GLD"))
}

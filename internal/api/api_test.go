package api

import (
    "compress/gzip"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/require"

    "priceboard/internal/aggregate"
    "priceboard/internal/classify"
    "priceboard/internal/provider"
    "priceboard/internal/series"
)

func init() { gin.SetMode(gin.TestMode) }

type fakePrices struct {
    got   []classify.Request
    panic bool
}

func (f *fakePrices) Resolve(_ context.Context, reqs []classify.Request) aggregate.Response {
    if f.panic { panic("boom") }
    f.got = reqs
    resp := aggregate.NewResponse()
    for _, r := range reqs {
        if r.Symbol == "BTC" {
            resp.Prices["BTC"] = aggregate.PriceEntry{Price: 64000, Source: "coingecko"}
            continue
        }
        resp.Errors[strings.ToUpper(r.Symbol)] = "Unsupported type"
    }
    resp.UpdatedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
    return resp
}

type fakeMarket struct{ p series.Payload }

func (f fakeMarket) Fetch(context.Context) series.Payload { return f.p }

func newHandler(p *fakePrices, m fakeMarket) http.Handler {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return New(Options{Prices: p, Market: m, Log: l})
}

func do(h http.Handler, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    for i := 0; i+1 < len(hdr); i += 2 {
        req.Header.Set(hdr[i], hdr[i+1])
    }
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestPrices_OK(t *testing.T) {
    p := &fakePrices{}
    h := newHandler(p, fakeMarket{})

    rr := do(h, http.MethodPost, "/prices", `{"holdings":[{"symbol":"BTC","type":"Crypto"},{"symbol":"car","type":"Other"}]}`)

    require.Equal(t, http.StatusOK, rr.Code)
    require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
    require.Contains(t, rr.Header().Get("Content-Type"), "application/json")
    require.JSONEq(t, `{
        "prices": {"BTC": {"price": 64000, "source": "coingecko"}},
        "errors": {"CAR": "Unsupported type"},
        "updatedAt": "2025-01-02T03:04:05Z"
    }`, rr.Body.String())
    require.Equal(t, []classify.Request{{Symbol: "BTC", Type: "Crypto"}, {Symbol: "car", Type: "Other"}}, p.got)
}

func TestPrices_EmptyHoldings(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    rr := do(h, http.MethodPost, "/prices", `{}`)

    require.Equal(t, http.StatusOK, rr.Code)
    var body map[string]any
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
    require.Empty(t, body["prices"])
    require.Empty(t, body["errors"])
}

func TestPrices_InvalidJSON(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    rr := do(h, http.MethodPost, "/prices", `{"holdings":`)

    require.Equal(t, http.StatusBadRequest, rr.Code)
    require.JSONEq(t, `{"error":"Invalid JSON"}`, rr.Body.String())
}

func TestPrices_LenientBodies(t *testing.T) {
    cases := []struct {
        name string
        body string
        want []classify.Request
    }{
        {"empty body is an empty object", "", nil},
        {"whitespace body", " \n", nil},
        {"holdings not an array", `{"holdings":"nope"}`, []classify.Request{}},
        {"body not an object", `[1,2]`, nil},
        {"null holdings", `{"holdings":null}`, []classify.Request{}},
        {"numeric symbol becomes a string, siblings survive",
            `{"holdings":[{"symbol":123,"type":"Stock"},{"symbol":"BTC","type":"Crypto"}]}`,
            []classify.Request{{Symbol: "123", Type: "Stock"}, {Symbol: "BTC", Type: "Crypto"}}},
        {"non-object items are skipped",
            `{"holdings":[7,"x",null,{"symbol":"BTC","type":"Crypto"}]}`,
            []classify.Request{{Symbol: "BTC", Type: "Crypto"}}},
        {"falsy and non-scalar fields read as blank",
            `{"holdings":[{"symbol":false,"type":{"a":1}},{"symbol":0},{"symbol":"ETH","type":true}]}`,
            []classify.Request{{}, {}, {Symbol: "ETH", Type: "true"}}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            p := &fakePrices{}
            h := newHandler(p, fakeMarket{})

            rr := do(h, http.MethodPost, "/prices", tc.body)

            require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
            if len(tc.want) == 0 {
                require.Empty(t, p.got)
                return
            }
            require.Equal(t, tc.want, p.got)
        })
    }
}

func TestPrices_NumericSymbolDoesNotSinkBatch(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    rr := do(h, http.MethodPost, "/prices", `{"holdings":[{"symbol":123,"type":"Stock"},{"symbol":"BTC","type":"Crypto"}]}`)

    require.Equal(t, http.StatusOK, rr.Code)
    var body aggregate.Response
    require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
    require.Equal(t, 64000.0, body.Prices["BTC"].Price)
    require.Equal(t, "Unsupported type", body.Errors["123"])
}

func TestPrices_TrailingDataIsInvalid(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    for _, body := range []string{`{"holdings":[]} trailing`, `{} {}`} {
        rr := do(h, http.MethodPost, "/prices", body)
        require.Equal(t, http.StatusBadRequest, rr.Code, body)
        require.JSONEq(t, `{"error":"Invalid JSON"}`, rr.Body.String())
    }
}

func TestPrices_MethodNotAllowed(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
        rr := do(h, m, "/prices", "")
        require.Equal(t, http.StatusMethodNotAllowed, rr.Code, m)
        require.JSONEq(t, `{"error":"Method not allowed"}`, rr.Body.String())
    }
}

func TestPrices_Preflight(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    rr := do(h, http.MethodOptions, "/prices", "")

    require.Equal(t, http.StatusOK, rr.Code)
    require.Equal(t, "POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
    require.Equal(t, "content-type", rr.Header().Get("Access-Control-Allow-Headers"))
    require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestPrices_PanicIs500(t *testing.T) {
    h := newHandler(&fakePrices{panic: true}, fakeMarket{})

    rr := do(h, http.MethodPost, "/prices", `{"holdings":[]}`)

    require.Equal(t, http.StatusInternalServerError, rr.Code)
    require.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}

func TestPrices_BodyTooLarge(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})
    big := `{"holdings":[` + strings.Repeat(`{"symbol":"BTC","type":"Crypto"},`, 40000) + `{}]}`

    rr := do(h, http.MethodPost, "/prices", big)

    require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMarket_StaleIsStill200(t *testing.T) {
    m := fakeMarket{p: series.Payload{
        SPY:   []provider.DatePoint{{Time: "2024-05-01", Value: 500}},
        BTC:   []provider.UnixPoint{{Time: 1714521600, Value: 60000}},
        Stale: true,
        Error: "Serving cached data: down",
    }}
    h := newHandler(&fakePrices{}, m)

    rr := do(h, http.MethodGet, "/market", "")

    require.Equal(t, http.StatusOK, rr.Code)
    require.JSONEq(t, `{
        "spy": [{"time": "2024-05-01", "value": 500}],
        "btc": [{"time": 1714521600, "value": 60000}],
        "stale": true,
        "error": "Serving cached data: down"
    }`, rr.Body.String())
}

func TestMarket_FreshOmitsError(t *testing.T) {
    m := fakeMarket{p: series.Payload{SPY: []provider.DatePoint{}, BTC: []provider.UnixPoint{}}}
    h := newHandler(&fakePrices{}, m)

    rr := do(h, http.MethodGet, "/market", "")

    require.JSONEq(t, `{"spy":[],"btc":[],"stale":false}`, rr.Body.String())
}

func TestMarket_Gzip(t *testing.T) {
    m := fakeMarket{p: series.Payload{SPY: []provider.DatePoint{}, BTC: []provider.UnixPoint{}}}
    h := newHandler(&fakePrices{}, m)

    rr := do(h, http.MethodGet, "/market", "", "Accept-Encoding", "gzip")

    require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
    zr, err := gzip.NewReader(rr.Body)
    require.NoError(t, err)
    b, err := io.ReadAll(zr)
    require.NoError(t, err)
    require.JSONEq(t, `{"spy":[],"btc":[],"stale":false}`, string(b))
}

func TestMarket_WrongMethod(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    rr := do(h, http.MethodPost, "/market", "")

    require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealthz(t *testing.T) {
    h := newHandler(&fakePrices{}, fakeMarket{})

    rr := do(h, http.MethodGet, "/healthz", "")

    require.Equal(t, http.StatusOK, rr.Code)
    require.Equal(t, "ok", rr.Body.String())
}

// Package api is the HTTP surface of the price board backend.
package api

import (
    "context"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus"

    "priceboard/internal/aggregate"
    "priceboard/internal/classify"
    "priceboard/internal/series"
)

// PriceResolver answers a /prices request.
type PriceResolver interface {
    Resolve(ctx context.Context, reqs []classify.Request) aggregate.Response
}

// MarketFetcher answers a /market request.
type MarketFetcher interface {
    Fetch(ctx context.Context) series.Payload
}

// Options wires the handlers.
type Options struct {
    Prices PriceResolver
    Market MarketFetcher
    Log    logrus.FieldLogger
    // Timeout bounds one request's upstream work; zero means 15s.
    Timeout time.Duration
}

type handler struct {
    prices  PriceResolver
    market  MarketFetcher
    log     logrus.FieldLogger
    timeout time.Duration
}

// New returns the full handler chain: gin routes under the JSON/CORS, gzip,
// panic recovery and body-limit middleware.
func New(opts Options) http.Handler {
    h := &handler{prices: opts.Prices, market: opts.Market, log: opts.Log, timeout: opts.Timeout}
    if h.log == nil { h.log = logrus.StandardLogger() }
    if h.timeout <= 0 { h.timeout = 15 * time.Second }

    r := gin.New()
    r.HandleMethodNotAllowed = true
    r.Use(accessLog(h.log))
    r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
    r.Any("/prices", h.handlePrices)
    r.GET("/market", h.handleMarket)
    r.OPTIONS("/market", preflight("GET, OPTIONS"))
    r.NoMethod(func(c *gin.Context) {
        c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
    })
    r.NoRoute(func(c *gin.Context) {
        c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
    })

    return withJSONHeaders(withGzip(recoverPanic(h.log, limitBody(r))))
}

func preflight(methods string) gin.HandlerFunc {
    return func(c *gin.Context) {
        c.Header("Access-Control-Allow-Methods", methods)
        c.Header("Access-Control-Allow-Headers", "content-type")
        c.Status(http.StatusOK)
    }
}

func (h *handler) handlePrices(c *gin.Context) {
    switch c.Request.Method {
    case http.MethodOptions:
        preflight("POST, OPTIONS")(c)
        return
    case http.MethodPost:
    default:
        c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
        return
    }

    holdings, err := decodeHoldings(c.Request.Body)
    if err != nil {
        h.log.WithField("path", "/prices").Debugf("bad body: %v", err)
        c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
        return
    }

    ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
    defer cancel()
    resp := h.prices.Resolve(ctx, holdings)
    if bad := resp.Check(holdings); len(bad) > 0 {
        h.log.WithField("symbols", bad).Error("symbols missing from /prices response")
    }
    c.JSON(http.StatusOK, resp)
}

func (h *handler) handleMarket(c *gin.Context) {
    ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
    defer cancel()
    p := h.market.Fetch(ctx)
    if p.Stale {
        h.log.WithField("stale", true).Warn("market served stale")
    }
    c.JSON(http.StatusOK, p)
}

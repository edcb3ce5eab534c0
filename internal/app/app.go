// Package app wires configuration into the provider adapters, the aggregator
// and the series service. Both binaries build their backend through it.
package app

import (
    "time"

    "github.com/sirupsen/logrus"

    "priceboard/internal/aggregate"
    "priceboard/internal/config"
    "priceboard/internal/httpx"
    "priceboard/internal/provider/alphavantage"
    "priceboard/internal/provider/cache"
    "priceboard/internal/provider/coingecko"
    "priceboard/internal/provider/metalprice"
    "priceboard/internal/provider/ratelimit"
    "priceboard/internal/series"
)

// Backend is everything the HTTP surface needs.
type Backend struct {
    Aggregator *aggregate.Aggregator
    Series     *series.Service
    // Quotes and Charts are the shared 60s quote and 5min series caches.
    Quotes *cache.TTL[[]byte]
    Charts *cache.TTL[[]byte]
}

// Build constructs the backend. doer may be nil to use a fresh httpx client
// bounded by the configured request timeout.
func Build(cfg config.Config, doer httpx.Doer, log logrus.FieldLogger) *Backend {
    if doer == nil {
        doer = httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
    }
    for _, k := range cfg.MissingKeys() {
        log.WithField("env", k).Warn("provider credential not set; its symbols will report API errors")
    }

    // a shared fetch outlives its first caller but not the upstream timeout
    flight := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
    quotes := cache.New[[]byte](time.Duration(cfg.Cache.QuoteTTLSeconds) * time.Second)
    quotes.FlightTimeout = flight
    charts := cache.New[[]byte](time.Duration(cfg.Cache.SeriesTTLSeconds) * time.Second)
    charts.FlightTimeout = flight

    cg := coingecko.New(cfg.CoinGecko.APIKey,
        coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
        coingecko.WithHTTPClient(doer),
        coingecko.WithQuoteCache(quotes),
        coingecko.WithSeriesCache(charts),
        coingecko.WithLogger(log.WithField("provider", coingecko.Name)),
    )
    av := alphavantage.New(cfg.AlphaVantage.APIKey,
        alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
        alphavantage.WithHTTPClient(doer),
        alphavantage.WithLimiter(ratelimit.PerMinute(cfg.AlphaVantage.MaxRequestsPerMinute, cfg.AlphaVantage.Burst)),
        alphavantage.WithQuoteCache(quotes),
        alphavantage.WithSeriesCache(charts),
        alphavantage.WithLogger(log.WithField("provider", alphavantage.Name)),
    )
    mp := metalprice.New(cfg.Metalprice.APIKey,
        metalprice.WithBaseURL(cfg.Metalprice.BaseURL),
        metalprice.WithHTTPClient(doer),
        metalprice.WithQuoteCache(quotes),
        metalprice.WithLogger(log.WithField("provider", metalprice.Name)),
    )

    return &Backend{
        Aggregator: &aggregate.Aggregator{Crypto: cg, Stocks: av, Rates: mp, Log: log},
        Series: &series.Service{
            Equity: av,
            Crypto: cg,
            Last:   &series.LastGood{},
            Log:    log,
            Symbol: cfg.Market.Symbol,
            Coin:   cfg.Market.Coin,
            Days:   cfg.Market.Days,
        },
        Quotes: quotes,
        Charts: charts,
    }
}

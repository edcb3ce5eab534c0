package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "gopkg.in/yaml.v3"
)

type Server struct {
    Port              string `json:"port" yaml:"port"`
    RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
}

type Log struct {
    Level  string `json:"level" yaml:"level"`
    Format string `json:"format" yaml:"format"`
}

type CoinGecko struct {
    APIKey  string `json:"api_key" yaml:"api_key"`
    BaseURL string `json:"base_url" yaml:"base_url"`
}

type AlphaVantage struct {
    APIKey               string `json:"api_key" yaml:"api_key"`
    BaseURL              string `json:"base_url" yaml:"base_url"`
    MaxRequestsPerMinute int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
    Burst                int    `json:"burst" yaml:"burst"`
}

type Metalprice struct {
    APIKey  string `json:"api_key" yaml:"api_key"`
    BaseURL string `json:"base_url" yaml:"base_url"`
}

type Cache struct {
    QuoteTTLSeconds  int `json:"quote_ttl_sec" yaml:"quote_ttl_sec"`
    SeriesTTLSeconds int `json:"series_ttl_sec" yaml:"series_ttl_sec"`
}

type Market struct {
    Symbol string `json:"symbol" yaml:"symbol"`
    Coin   string `json:"coin" yaml:"coin"`
    Days   int    `json:"days" yaml:"days"`
}

// Client configures the dashboard side: where the backend lives, where
// last-known prices are kept and how often to poll.
type Client struct {
    Server       string `json:"server" yaml:"server"`
    StorePath    string `json:"store_path" yaml:"store_path"`
    Poll         string `json:"poll" yaml:"poll"`
    MinGapSec    int    `json:"min_gap_sec" yaml:"min_gap_sec"`
    HoldingsFile string `json:"holdings_file" yaml:"holdings_file"`
}

type Config struct {
    Server       Server       `json:"server" yaml:"server"`
    Log          Log          `json:"log" yaml:"log"`
    CoinGecko    CoinGecko    `json:"coingecko" yaml:"coingecko"`
    AlphaVantage AlphaVantage `json:"alphavantage" yaml:"alphavantage"`
    Metalprice   Metalprice   `json:"metalprice" yaml:"metalprice"`
    Cache        Cache        `json:"cache" yaml:"cache"`
    Market       Market       `json:"market" yaml:"market"`
    Client       Client       `json:"client" yaml:"client"`
}

func Default() Config {
    return Config{
        Server: Server{Port: "8080", RequestTimeoutSec: 10},
        Log:    Log{Level: "info", Format: "text"},
        CoinGecko:    CoinGecko{BaseURL: "https://api.coingecko.com"},
        AlphaVantage: AlphaVantage{
            BaseURL:              "https://www.alphavantage.co",
            MaxRequestsPerMinute: 5,
            Burst:                5,
        },
        Metalprice: Metalprice{BaseURL: "https://api.metalpriceapi.com"},
        Cache:      Cache{QuoteTTLSeconds: 60, SeriesTTLSeconds: 300},
        Market:     Market{Symbol: "SPY", Coin: "bitcoin", Days: 90},
        Client: Client{
            Server:       "http://localhost:8080",
            StorePath:    "priceboard.db",
            Poll:         "@every 5m",
            MinGapSec:    30,
            HoldingsFile: "holdings.yaml",
        },
    }
}

// Load reads config from path, JSON or YAML by extension. If path is empty,
// config.json then config.yaml are tried; a missing file yields defaults.
// Environment variables override select fields, secrets in particular.
func Load(path string) (Config, error) {
    cfg := Default()
    if path == "" {
        for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
            if _, err := os.Stat(candidate); err == nil { path = candidate; break }
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil && !errors.Is(err, os.ErrNotExist) {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err == nil {
            if err := decode(path, b, &cfg); err != nil {
                return cfg, fmt.Errorf("parse config: %w", err)
            }
        }
    }
    applyEnv(&cfg)
    return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
    switch strings.ToLower(filepath.Ext(path)) {
    case ".yaml", ".yml":
        return yaml.Unmarshal(b, cfg)
    default:
        return json.Unmarshal(b, cfg)
    }
}

// Validate rejects settings the server cannot run with. Missing API keys are
// not an error: the affected provider reports per-symbol failures instead.
func (c Config) Validate() error {
    if c.Server.Port == "" {
        return fmt.Errorf("server.port is required")
    }
    if c.Server.RequestTimeoutSec <= 0 {
        return fmt.Errorf("server.request_timeout_sec must be positive")
    }
    if c.Cache.QuoteTTLSeconds <= 0 {
        return fmt.Errorf("cache.quote_ttl_sec must be positive")
    }
    if c.Cache.SeriesTTLSeconds <= 0 {
        return fmt.Errorf("cache.series_ttl_sec must be positive")
    }
    if c.AlphaVantage.MaxRequestsPerMinute < 0 {
        return fmt.Errorf("alphavantage.max_requests_per_minute must not be negative")
    }
    if c.Market.Days <= 0 {
        return fmt.Errorf("market.days must be positive")
    }
    if c.Client.MinGapSec < 0 {
        return fmt.Errorf("client.min_gap_sec must not be negative")
    }
    return nil
}

// MissingKeys lists the providers whose credential is not configured.
func (c Config) MissingKeys() []string {
    var out []string
    if c.CoinGecko.APIKey == "" { out = append(out, "COINGECKO_DEMO_KEY") }
    if c.AlphaVantage.APIKey == "" { out = append(out, "ALPHAVANTAGE_KEY") }
    if c.Metalprice.APIKey == "" { out = append(out, "METALPRICE_KEY") }
    return out
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Server.RequestTimeoutSec = x }
    }
    if v := os.Getenv("LOG_LEVEL"); v != "" { cfg.Log.Level = v }
    if v := os.Getenv("LOG_FORMAT"); v != "" { cfg.Log.Format = v }

    if v := os.Getenv("COINGECKO_DEMO_KEY"); v != "" { cfg.CoinGecko.APIKey = v }
    if v := os.Getenv("COINGECKO_BASE_URL"); v != "" { cfg.CoinGecko.BaseURL = v }
    if v := os.Getenv("ALPHAVANTAGE_KEY"); v != "" { cfg.AlphaVantage.APIKey = v }
    if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" { cfg.AlphaVantage.BaseURL = v }
    if v := os.Getenv("ALPHAVANTAGE_MAX_RPM"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.AlphaVantage.MaxRequestsPerMinute = x }
    }
    if v := os.Getenv("ALPHAVANTAGE_BURST"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.AlphaVantage.Burst = x }
    }
    if v := os.Getenv("METALPRICE_KEY"); v != "" { cfg.Metalprice.APIKey = v }
    if v := os.Getenv("METALPRICE_BASE_URL"); v != "" { cfg.Metalprice.BaseURL = v }

    if v := os.Getenv("QUOTE_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.QuoteTTLSeconds = x }
    }
    if v := os.Getenv("SERIES_CACHE_TTL_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x > 0 { cfg.Cache.SeriesTTLSeconds = x }
    }

    // Client env
    if v := os.Getenv("PRICEBOARD_SERVER"); v != "" { cfg.Client.Server = strings.TrimRight(v, "/") }
    if v := os.Getenv("PRICEBOARD_STORE"); v != "" { cfg.Client.StorePath = v }
    if v := os.Getenv("PRICEBOARD_POLL"); v != "" { cfg.Client.Poll = v }
    if v := os.Getenv("PRICEBOARD_MIN_GAP_SEC"); v != "" {
        var x int; fmt.Sscanf(v, "%d", &x); if x >= 0 { cfg.Client.MinGapSec = x }
    }
    if v := os.Getenv("PRICEBOARD_HOLDINGS"); v != "" { cfg.Client.HoldingsFile = v }
}

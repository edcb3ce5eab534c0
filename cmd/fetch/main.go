// Command fetch resolves symbols straight through the provider adapters,
// without a running server, and prints the /prices (or /market) body.
package main

import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"

    "priceboard/internal/app"
    "priceboard/internal/classify"
    "priceboard/internal/config"
    "priceboard/internal/logging"
)

func main() {
    _ = godotenv.Load()

    var symbolsCSV string
    var market bool
    var timeout int
    var configPath string
    var verbose bool

    flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "BTC:Crypto,AAPL:Stock,XAU:Metal,EURUSD:Forex"), "comma-separated SYMBOL:Type pairs")
    flag.BoolVar(&market, "market", getenvBool("MARKET", false), "print the market series instead of prices")
    flag.IntVar(&timeout, "timeout", getenvInt("REQUEST_TIMEOUT_SEC", 15), "request timeout seconds")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json or config.yaml (optional)")
    flag.BoolVar(&verbose, "v", getenvBool("VERBOSE", false), "log provider activity to stderr")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil { logrus.Fatalf("config: %v", err) }
    if timeout != 0 { cfg.Server.RequestTimeoutSec = timeout }

    log := logging.Discard()
    if verbose { log = logging.New("debug", cfg.Log.Format) }

    reqs, err := parseSymbols(symbolsCSV)
    if err != nil { logrus.Fatalf("symbols: %v", err) }

    b := app.Build(cfg, nil, log)
    ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
    defer cancel()

    var out any
    if market {
        out = b.Series.Fetch(ctx)
    } else {
        out = b.Aggregator.Resolve(ctx, reqs)
    }
    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    _ = enc.Encode(out)
}

// parseSymbols reads "BTC:Crypto,AAPL:Stock". A bare symbol defaults to Stock.
func parseSymbols(csv string) ([]classify.Request, error) {
    var out []classify.Request
    for _, part := range splitCSV(csv) {
        sym, typ, found := strings.Cut(part, ":")
        sym, typ = strings.TrimSpace(sym), strings.TrimSpace(typ)
        if !found { typ = "Stock" }
        if sym == "" || typ == "" {
            return nil, fmt.Errorf("bad entry %q", part)
        }
        out = append(out, classify.Request{Symbol: sym, Type: typ})
    }
    return out, nil
}

func splitCSV(s string) []string {
    parts := strings.Split(s, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        _, _ = fmt.Sscanf(v, "%d", &x)
        if x != 0 { return x }
    }
    return def
}
func getenvBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        switch strings.ToLower(v) {
        case "1","true","yes","y": return true
        case "0","false","no","n": return false
        }
    }
    return def
}

package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"

    "priceboard/internal/api"
    "priceboard/internal/app"
    "priceboard/internal/config"
    "priceboard/internal/logging"
)

func main() {
    _ = godotenv.Load()

    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil { logrus.Fatalf("config: %v", err) }
    if err := cfg.Validate(); err != nil { logrus.Fatalf("config: %v", err) }

    log := logging.New(cfg.Log.Level, cfg.Log.Format)
    gin.SetMode(gin.ReleaseMode)

    srv := newServer(cfg, app.Build(cfg, nil, log), log)

    go func() {
        log.Infof("server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatalf("server: %v", err)
        }
    }()

    // graceful shutdown
    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    <-ctx.Done()
    log.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
}

func newServer(cfg config.Config, b *app.Backend, log logrus.FieldLogger) *http.Server {
    return &http.Server{
        Addr: ":" + cfg.Server.Port,
        Handler: api.New(api.Options{
            Prices:  b.Aggregator,
            Market:  b.Series,
            Log:     log,
            Timeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
        }),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"priceboard/internal/client"
	"priceboard/internal/config"
	"priceboard/internal/logging"
	"priceboard/internal/portfolio"
	"priceboard/internal/pricestore"
)

// as a CLI the process is short lived, global flags are fine.

var configFile = flag.String("config", os.Getenv("CONFIG_FILE"), "Path to config.json or config.yaml")
var holdingsFile = flag.String("holdings", "", "Holdings file (defaults to client.holdings_file)")
var serverURL = flag.String("server", "", "Backend base URL (defaults to client.server)")
var verbose = flag.Bool("v", false, "Log to stderr")

// session is what every command needs: config, the book and, when pricing,
// the store-backed refresher.
type session struct {
	cfg   config.Config
	log   logrus.FieldLogger
	book  *portfolio.Book
	store *pricestore.Store
	ref   *client.Refresher
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return cfg, err
	}
	if *holdingsFile != "" {
		cfg.Client.HoldingsFile = *holdingsFile
	}
	if *serverURL != "" {
		cfg.Client.Server = *serverURL
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *logrus.Logger {
	if *verbose {
		return logging.New(cfg.Log.Level, cfg.Log.Format)
	}
	return logging.Discard()
}

// openBook loads config and the holdings file only.
func openBook() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	book, err := portfolio.LoadFile(cfg.Client.HoldingsFile)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: newLogger(cfg), book: book}, nil
}

// openPriced additionally opens the price store and builds a refresher
// against the configured backend.
func openPriced(ctx context.Context) (*session, error) {
	s, err := openBook()
	if err != nil {
		return nil, err
	}
	s.store, err = pricestore.Open(s.cfg.Client.StorePath, s.log)
	if err != nil {
		return nil, err
	}
	gap := time.Duration(s.cfg.Client.MinGapSec) * time.Second
	s.ref, err = client.NewRefresher(ctx, newClient(s.cfg), s.store, s.book, gap, s.log)
	if err != nil {
		_ = s.store.Close()
		return nil, err
	}
	return s, nil
}

// save writes the book back; prices applied by a refresh become the new
// current values.
func (s *session) save() error {
	if s.ref != nil {
		var err error
		s.ref.View(func(b *portfolio.Book, _ map[string]string) { err = portfolio.SaveFile(s.cfg.Client.HoldingsFile, b) })
		return err
	}
	return portfolio.SaveFile(s.cfg.Client.HoldingsFile, s.book)
}

func (s *session) close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

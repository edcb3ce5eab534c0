// Package pricestore keeps the last known price per symbol on the client, so
// a provider outage still leaves something to show.
package pricestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Namespace scopes every row so the file can be shared with other tools.
const Namespace = "priceboard.prices.v1"

// Entry is one remembered price.
type Entry struct {
	Symbol    string  `db:"symbol" json:"symbol"`
	Price     float64 `db:"price" json:"price"`
	Source    string  `db:"source" json:"source"`
	UpdatedAt int64   `db:"updated_at" json:"updatedAt"`
}

// Updated returns UpdatedAt as a time.
func (e Entry) Updated() time.Time { return time.Unix(e.UpdatedAt, 0).UTC() }

// Store is a SQLite-backed symbol -> last price map.
type Store struct {
	db  *sqlx.DB
	ns  string
	log logrus.FieldLogger
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, log logrus.FieldLogger) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &Store{db: db, ns: Namespace, log: log}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.log.WithField("path", path).Debug("price store opened")
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS last_prices (
		namespace  TEXT    NOT NULL,
		symbol     TEXT    NOT NULL,
		price      REAL    NOT NULL,
		source     TEXT    NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, symbol)
	)`)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Put remembers entries in one transaction. Non-finite prices are skipped.
func (s *Store) Put(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO last_prices (namespace, symbol, price, source, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (namespace, symbol) DO UPDATE SET
			price = excluded.price, source = excluded.source, updated_at = excluded.updated_at`
	for _, e := range entries {
		if math.IsNaN(e.Price) || math.IsInf(e.Price, 0) || e.Symbol == "" {
			s.log.WithField("symbol", e.Symbol).Debug("skipping unusable price")
			continue
		}
		if _, err := tx.ExecContext(ctx, q, s.ns, e.Symbol, e.Price, e.Source, e.UpdatedAt); err != nil {
			return fmt.Errorf("upsert %s: %w", e.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns the remembered price for symbol.
func (s *Store) Get(ctx context.Context, symbol string) (Entry, bool, error) {
	var e Entry
	err := s.db.GetContext(ctx, &e,
		`SELECT symbol, price, source, updated_at FROM last_prices WHERE namespace = ? AND symbol = ?`, s.ns, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %s: %w", symbol, err)
	}
	return e, true, nil
}

// All returns every remembered price keyed by symbol.
func (s *Store) All(ctx context.Context) (map[string]Entry, error) {
	var rows []Entry
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT symbol, price, source, updated_at FROM last_prices WHERE namespace = ? ORDER BY symbol`, s.ns); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	out := make(map[string]Entry, len(rows))
	for _, e := range rows {
		out[e.Symbol] = e
	}
	return out, nil
}

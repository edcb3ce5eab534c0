package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"priceboard/internal/aggregate"
	"priceboard/internal/classify"
	"priceboard/internal/portfolio"
	"priceboard/internal/pricestore"
	"priceboard/internal/provider/ratelimit"
)

// PriceSource is the backend /prices call.
type PriceSource interface {
	Prices(ctx context.Context, reqs []classify.Request) (aggregate.Response, error)
}

// Store remembers the last confirmed price per symbol.
type Store interface {
	Put(ctx context.Context, entries ...pricestore.Entry) error
	All(ctx context.Context) (map[string]pricestore.Entry, error)
}

// Refresher keeps a book priced. Refreshes closer together than the minimum
// gap are dropped, manual ones included.
type Refresher struct {
	src   PriceSource
	store Store
	gap   *ratelimit.MinGap
	log   logrus.FieldLogger

	mu          sync.Mutex
	book        *portfolio.Book
	lastKnown   map[string]pricestore.Entry
	priceErrors map[string]string
	status      Status
	lastUpdated time.Time
}

// NewRefresher loads the remembered prices from store (may be nil) so they
// are available as a fallback from the first refresh on.
func NewRefresher(ctx context.Context, src PriceSource, store Store, book *portfolio.Book, minGap time.Duration, log logrus.FieldLogger) (*Refresher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Refresher{
		src:         src,
		store:       store,
		gap:         &ratelimit.MinGap{Interval: minGap},
		log:         log,
		book:        book,
		lastKnown:   map[string]pricestore.Entry{},
		priceErrors: map[string]string{},
	}
	if store != nil {
		all, err := store.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("load remembered prices: %w", err)
		}
		r.lastKnown = all
	}
	return r, nil
}

// Refresh fetches prices for the book and applies them. It returns the new
// status line.
func (r *Refresher) Refresh(ctx context.Context) Status {
	r.mu.Lock()
	reqs := r.book.Requests()
	r.mu.Unlock()

	if len(reqs) == 0 {
		return r.setStatus(Status{Kind: NoSymbols})
	}
	if ok, _ := r.gap.Allow(); !ok {
		r.log.Debug("refresh throttled")
		r.mu.Lock()
		defer r.mu.Unlock()
		// the throttled state is reported, not stored
		return Status{Kind: Throttled, At: r.lastUpdated}
	}
	r.setStatus(Status{Kind: Loading})

	resp, err := r.src.Prices(ctx, reqs)
	if err != nil {
		r.log.Warnf("price refresh failed: %v", err)
		r.mu.Lock()
		applied := r.book.Apply(nil, r.lookup)
		r.mu.Unlock()
		r.log.WithField("last_known", len(applied.LastKnown)).Debug("applied remembered prices")
		return r.setStatus(Status{Kind: Failed, At: r.lastUpdatedAt()})
	}

	updated := resp.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	prices := make(map[string]float64, len(resp.Prices))
	entries := make([]pricestore.Entry, 0, len(resp.Prices))
	for sym, p := range resp.Prices {
		prices[sym] = p.Price
		entries = append(entries, pricestore.Entry{Symbol: sym, Price: p.Price, Source: p.Source, UpdatedAt: updated.Unix()})
	}

	r.mu.Lock()
	applied := r.book.Apply(prices, r.lookup)
	r.priceErrors = resp.Errors
	for _, e := range entries {
		if _, ok := portfolio.FromFloat(e.Price); ok {
			r.lastKnown[e.Symbol] = e
		}
	}
	r.lastUpdated = updated
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Put(ctx, entries...); err != nil {
			r.log.Warnf("remember prices: %v", err)
		}
	}
	r.log.WithFields(logrus.Fields{
		"fresh":      len(applied.Fresh),
		"last_known": len(applied.LastKnown),
		"errors":     len(resp.Errors),
	}).Info("prices refreshed")
	return r.setStatus(Status{Kind: Updated, At: updated})
}

// lookup must be called with mu held.
func (r *Refresher) lookup(sym string) (float64, bool) {
	e, ok := r.lastKnown[sym]
	return e.Price, ok
}

func (r *Refresher) lastUpdatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUpdated
}

func (r *Refresher) setStatus(s Status) Status {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
	return s
}

// Status returns the status of the last refresh that ran.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// PriceErrors returns the per-symbol reasons from the last successful refresh.
func (r *Refresher) PriceErrors() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.priceErrors))
	for k, v := range r.priceErrors {
		out[k] = v
	}
	return out
}

// View runs fn with the book locked, together with the per-symbol reasons of
// the last successful refresh. fn must not call back into r; priceErrors is
// only valid for the duration of the call.
func (r *Refresher) View(fn func(b *portfolio.Book, priceErrors map[string]string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.book, r.priceErrors)
}

// Schedule refreshes once now and then on spec (a cron spec such as
// "@every 5m") until ctx is done. onRefresh, if set, sees every status.
func (r *Refresher) Schedule(ctx context.Context, spec string, onRefresh func(Status)) error {
	c := cron.New()
	run := func() {
		s := r.Refresh(ctx)
		if onRefresh != nil {
			onRefresh(s)
		}
	}
	if _, err := c.AddFunc(spec, run); err != nil {
		return fmt.Errorf("register refresh %q: %w", spec, err)
	}
	run()
	c.Start()
	r.log.WithField("schedule", spec).Info("refresher started")
	<-ctx.Done()
	<-c.Stop().Done()
	r.log.Info("refresher stopped")
	return nil
}

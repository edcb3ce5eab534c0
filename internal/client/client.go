// Package client talks to the price board backend and keeps a holdings book
// priced on a schedule.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"priceboard/internal/aggregate"
	"priceboard/internal/classify"
	"priceboard/internal/httpx"
	"priceboard/internal/series"
)

const maxBody = 8 << 20

// Client calls /prices and /market on one backend.
type Client struct {
	base string
	http httpx.Doer
}

// New returns a client for the backend at base ("http://host:port").
func New(base string, doer httpx.Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: doer}
}

// Prices posts the holdings and decodes the response.
func (c *Client) Prices(ctx context.Context, reqs []classify.Request) (aggregate.Response, error) {
	var out aggregate.Response
	body, err := json.Marshal(struct {
		Holdings []classify.Request `json:"holdings"`
	}{Holdings: reqs})
	if err != nil {
		return out, fmt.Errorf("encode holdings: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/prices", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.do(req, &out); err != nil {
		return out, err
	}
	if out.Prices == nil {
		out.Prices = map[string]aggregate.PriceEntry{}
	}
	if out.Errors == nil {
		out.Errors = map[string]string{}
	}
	return out, nil
}

// Market fetches the reference series.
func (c *Client) Market(ctx context.Context) (series.Payload, error) {
	var out series.Payload
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/market", http.NoBody)
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	err = c.do(req, &out)
	return out, err
}

func (c *Client) do(req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	b, err := httpx.ReadOK(res, maxBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"

	"priceboard/internal/provider"
)

type dailySeries struct {
	Series map[string]struct {
		Close string `json:"4. close"`
	} `json:"Time Series (Daily)"`
}

// DailyCloses returns the compact daily close history of symbol, oldest first.
func (c *Client) DailyCloses(ctx context.Context, symbol string) ([]provider.DatePoint, error) {
	key := Name + ":daily:" + symbol
	body, _, err := load(ctx, c.series, key, func(ctx context.Context) ([]byte, error) {
		q := url.Values{}
		q.Set("function", "TIME_SERIES_DAILY")
		q.Set("symbol", symbol)
		q.Set("outputsize", "compact")
		b, err := c.queryWaiting(ctx, q)
		if err != nil {
			return nil, err
		}
		if _, err := decodeDaily(b); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return decodeDaily(body)
}

func decodeDaily(b []byte) ([]provider.DatePoint, error) {
	var ds dailySeries
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("decoding daily series: %w", err)
	}
	points := make([]provider.DatePoint, 0, len(ds.Series))
	for date, bar := range ds.Series {
		v, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points = append(points, provider.DatePoint{Time: date, Value: v})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("daily series: %w", provider.ErrNoData)
	}
	// YYYY-MM-DD sorts chronologically as text
	sort.Slice(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	return points, nil
}

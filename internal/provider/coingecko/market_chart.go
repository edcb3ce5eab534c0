package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"priceboard/internal/provider"
)

type marketChart struct {
	Prices [][2]*float64 `json:"prices"`
}

// MarketChart returns the USD price history of coin over the last days,
// oldest first, with timestamps truncated to unix seconds.
func (c *Client) MarketChart(ctx context.Context, coin string, days int) ([]provider.UnixPoint, error) {
	key := fmt.Sprintf("%s:chart:%s:%d", Name, coin, days)
	body, _, err := load(ctx, c.series, key, func(ctx context.Context) ([]byte, error) {
		q := url.Values{}
		q.Set("vs_currency", "usd")
		q.Set("days", strconv.Itoa(days))
		b, err := c.get(ctx, "/api/v3/coins/"+url.PathEscape(coin)+"/market_chart", q)
		if err != nil {
			return nil, err
		}
		if _, err := decodeMarketChart(b); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return decodeMarketChart(body)
}

func decodeMarketChart(b []byte) ([]provider.UnixPoint, error) {
	var mc marketChart
	if err := json.Unmarshal(b, &mc); err != nil {
		return nil, fmt.Errorf("decoding market chart: %w", err)
	}
	points := make([]provider.UnixPoint, 0, len(mc.Prices))
	for _, p := range mc.Prices {
		if p[0] == nil || p[1] == nil || math.IsNaN(*p[1]) || math.IsInf(*p[1], 0) {
			continue
		}
		points = append(points, provider.UnixPoint{Time: int64(*p[0] / 1000), Value: *p[1]})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("market chart: %w", provider.ErrNoData)
	}
	return points, nil
}

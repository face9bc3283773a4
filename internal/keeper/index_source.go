package keeper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// IndexSource is the external, off-chain source of truth for the
// prediction-market's underlying probability — spec.md §6's "external
// oracle updater pushes an external index price" paragraph leaves the
// feed itself unspecified; this repository grounds it on the same
// resty-polled-REST shape the example pack uses for reading a live
// prediction-market price (0xtitan6-polymarket-mm's exchange.Client).
type IndexSource interface {
	FetchIndexPrice(ctx context.Context) (decimal.Decimal, error)
}

// indexPriceResponse is the {"price": "0.53"} shape expected from the
// configured external feed.
type indexPriceResponse struct {
	Price decimal.Decimal `json:"price"`
}

// RestyIndexSource reads an external index price from a configurable
// HTTP endpoint, e.g. a market-data service mirroring the prediction
// market's own resolution odds.
type RestyIndexSource struct {
	http *resty.Client
	path string
}

// NewRestyIndexSource builds a source against baseURL with the given
// path (defaulting to "/price" when empty).
func NewRestyIndexSource(baseURL, path string) *RestyIndexSource {
	if path == "" {
		path = "/price"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)
	return &RestyIndexSource{http: client, path: path}
}

func (s *RestyIndexSource) FetchIndexPrice(ctx context.Context) (decimal.Decimal, error) {
	var out indexPriceResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(s.path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("keeper: fetch index price: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Zero, fmt.Errorf("keeper: fetch index price: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Price, nil
}

// StaticIndexSource reports a fixed price. Used for local development
// when no external feed is configured — mirrors the exchange binary's
// own devOraclePrice fallback.
type StaticIndexSource struct {
	Price decimal.Decimal
}

func (s StaticIndexSource) FetchIndexPrice(ctx context.Context) (decimal.Decimal, error) {
	return s.Price, nil
}

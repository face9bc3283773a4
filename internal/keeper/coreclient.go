// Package keeper implements the two external poller processes spec.md
// §6's "Keeper interfaces" paragraph names: an oracle updater that
// pushes an external index price on a long cadence, and a
// funding/perp-price updater that polls this core's own HTTP surface
// and derives a funding rate on a short cadence. Both are standalone
// binaries (cmd/keeper-oracle, cmd/keeper-funding), never linked into
// the exchange process, per spec.md §2's "external collaborators" split.
package keeper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// CoreClient polls this repository's own JSON-over-HTTP surface
// (spec.md §6) the way the example pack's market-making bot polls the
// Polymarket CLOB REST API: a resty client with a base URL, a timeout,
// and bounded retries on 5xx.
type CoreClient struct {
	http *resty.Client
}

// NewCoreClient builds a CoreClient against baseURL (e.g.
// "http://localhost:8080").
func NewCoreClient(baseURL string) *CoreClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})
	return &CoreClient{http: client}
}

// OraclePrice fetches GET /oracle_price: the index price this core
// currently has cached from the settlement oracle.
func (c *CoreClient) OraclePrice(ctx context.Context) (decimal.Decimal, error) {
	return c.getDecimal(ctx, "/oracle_price")
}

// PerpPrice fetches GET /perp_price: the mark price per spec.md §4.3.
func (c *CoreClient) PerpPrice(ctx context.Context) (decimal.Decimal, error) {
	return c.getDecimal(ctx, "/perp_price")
}

func (c *CoreClient) getDecimal(ctx context.Context, path string) (decimal.Decimal, error) {
	var out decimal.Decimal
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("keeper: get %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Zero, fmt.Errorf("keeper: get %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return out, nil
}

package httpapi

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"predictperp/internal/engine"
	"predictperp/internal/errs"
	"predictperp/internal/side"
)

// handlers holds the one Engine this server's routes dispatch against.
// A future multi-market deployment would key a map of these by market
// name; spec.md's Non-goals scope this repository to a single market.
type handlers struct {
	engine *engine.Engine

	// idempotency tracks trader|client_order_id -> the order_id the book
	// assigned, so a retried POST /tx/limit_order with the same
	// client_order_id replays the original result instead of resting a
	// second order. Unbounded for the lifetime of the process; spec.md's
	// Non-goals don't call for persistence of this table across restarts.
	idempotency sync.Map
}

func parseDirection(s string) (side.Side, error) {
	switch s {
	case "buy":
		return side.Buy, nil
	case "sell":
		return side.Sell, nil
	default:
		return side.Buy, errs.Validationf("direction must be \"buy\" or \"sell\", got %q", s)
	}
}

// getOrderbook handles GET /orderbook.
func (h *handlers) getOrderbook(w http.ResponseWriter, r *http.Request) {
	bids, asks := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, toOrderbookResponse(bids, asks))
}

// getPositions handles GET /positions/{address}.
func (h *handlers) getPositions(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing address")
		return
	}

	positions, err := h.engine.OpenPositionsFor(r.Context(), address)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	views := make([]positionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, toPositionView(p))
	}
	writeJSON(w, http.StatusOK, positionsResponse{Positions: views})
}

// getOraclePrice handles GET /oracle_price.
func (h *handlers) getOraclePrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.engine.OraclePrice(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// getPerpPrice handles GET /perp_price.
func (h *handlers) getPerpPrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.engine.PerpPrice(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// getTrades handles GET /trades: the last 20 trades, per spec.md §6.
func (h *handlers) getTrades(w http.ResponseWriter, r *http.Request) {
	const tapeDepth = 20
	trades := h.engine.RecentTrades(tapeDepth)
	writeJSON(w, http.StatusOK, tradesResponse{Trades: toTradeViews(trades)})
}

// postLimitOrder handles POST /tx/limit_order.
func (h *handlers) postLimitOrder(w http.ResponseWriter, r *http.Request) {
	var req limitOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TraderAddress == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing trader_address")
		return
	}

	dir, err := parseDirection(req.Direction)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	idemKey := req.TraderAddress + "|" + req.ClientOrderID
	if cached, dup := h.idempotency.Load(idemKey); dup {
		bids, asks := h.engine.Snapshot()
		writeJSON(w, http.StatusOK, limitOrderResponse{
			Status:        "ok",
			OrderID:       cached.(uint64),
			ClientOrderID: req.ClientOrderID,
			Orderbook:     toOrderbookResponse(bids, asks),
		})
		return
	}

	order, err := h.engine.SubmitLimitOrder(req.TraderAddress, dir, req.Price, req.Quantity, req.Leverage, req.Margin)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	h.idempotency.Store(idemKey, order.ID)

	bids, asks := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, limitOrderResponse{
		Status:        "ok",
		OrderID:       order.ID,
		ClientOrderID: req.ClientOrderID,
		Orderbook:     toOrderbookResponse(bids, asks),
	})
}

// postMarketOrder handles POST /tx/market_order.
func (h *handlers) postMarketOrder(w http.ResponseWriter, r *http.Request) {
	var req marketOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TraderAddress == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing trader_address")
		return
	}

	dir, err := parseDirection(req.Direction)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	trades, err := h.engine.SubmitMarketOrder(req.TraderAddress, dir, req.Quantity, req.Leverage, req.Margin)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	bids, asks := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, marketOrderResponse{
		Status:    "ok",
		Orderbook: toOrderbookResponse(bids, asks),
		Trades:    toTradeViews(trades),
	})
}

// postRemoveLimitOrder handles POST /tx/remove_limit_order.
func (h *handlers) postRemoveLimitOrder(w http.ResponseWriter, r *http.Request) {
	var req removeLimitOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TraderAddress == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing trader_address")
		return
	}

	dir, err := parseDirection(req.Direction)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	if err := h.engine.CancelLimitOrder(req.TraderAddress, req.OrderID, dir, req.Price); err != nil {
		writeCoreError(w, err)
		return
	}

	bids, asks := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, removeLimitOrderResponse{
		Status:    "ok",
		Orderbook: toOrderbookResponse(bids, asks),
	})
}

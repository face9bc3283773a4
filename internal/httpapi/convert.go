package httpapi

import (
	"predictperp/internal/book"
	"predictperp/internal/position"
	"predictperp/internal/tradelog"
)

func toOrderbookResponse(bids, asks []book.DepthLevel) orderbookResponse {
	resp := orderbookResponse{
		Bids: make([]depthRow, 0, len(bids)),
		Asks: make([]depthRow, 0, len(asks)),
	}
	for _, lvl := range bids {
		resp.Bids = append(resp.Bids, depthRow{lvl.Price, lvl.Quantity})
	}
	for _, lvl := range asks {
		resp.Asks = append(resp.Asks, depthRow{lvl.Price, lvl.Quantity})
	}
	return resp
}

func toPositionView(p *position.Position) positionView {
	return positionView{
		ID:            p.ID,
		Account:       p.Account,
		Market:        p.Market,
		Side:          p.Side.String(),
		EntryPrice:    p.EntryPrice,
		Quantity:      p.Quantity,
		Leverage:      p.Leverage,
		Margin:        p.Margin,
		UnrealizedPnL: p.UnrealizedPnL,
		RealizedPnL:   p.RealizedPnL,
		FundingPaid:   p.FundingPaid,
		Status:        p.Status.String(),
	}
}

func toTradeView(t tradelog.Trade) tradeView {
	return tradeView{
		ID:        t.ID,
		Market:    t.Market,
		Price:     t.Price,
		Quantity:  t.Quantity,
		TakerID:   t.TakerID,
		MakerID:   t.MakerID,
		TakerSide: t.TakerSide.String(),
	}
}

func toTradeViews(trades []tradelog.Trade) []tradeView {
	out := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeView(t))
	}
	return out
}

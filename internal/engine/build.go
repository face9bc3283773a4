package engine

import (
	"predictperp/internal/book"
	"predictperp/internal/clock"
	"predictperp/internal/oracle"
	"predictperp/internal/position"
	"predictperp/internal/settlement"
	"predictperp/internal/tradelog"
	"predictperp/internal/workerpool"
)

// Build constructs a fully-wired Engine for market: a book.Book whose
// Hooks is the engine itself, a tradelog.Log, and a position.Manager
// sharing that book/log as its mark-price source. This is the
// chicken-and-egg resolution New/Wire leaves to callers who want to
// assemble the pieces by hand; most callers should use this instead.
func Build(market string, settle settlement.Port, orcl oracle.Port, clk clock.Clock, pool *workerpool.Pool) *Engine {
	e := New(market, settle, pool)

	trades := tradelog.New(market)
	b := book.New(market, e, trades)
	positions := position.New(market, settle, orcl, b, trades, clk)

	e.Wire(b, trades, positions)
	return e
}

// Package tradelog implements the append-only, monotonically-ordered
// sequence of executed fills that the order book writes to on every
// match. It is a thin, isolated collaborator of the book so replays and
// audits can consume the tape independently of live matching.
package tradelog

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"predictperp/internal/side"
)

// Trade is one maker/taker fill. Quantity is always positive; Price is
// the maker's resting limit price, never the taker's.
type Trade struct {
	ID        uint64
	Market    string
	Timestamp time.Time
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	TakerID   string
	MakerID   string
	TakerSide side.Side
	TakerFee  decimal.Decimal
	MakerFee  decimal.Decimal
}

// Sink lets a persistence adapter mirror the tape without the hot
// matching path depending on storage latency. Append must not block or
// return an error the caller needs to act on; a Sink that fails logs its
// own failure and moves on.
type Sink interface {
	Mirror(trade Trade)
}

type noopSink struct{}

func (noopSink) Mirror(Trade) {}

// Log is the append-only trade tape for one market. Writes are serialized
// by the order book's lock; Log itself also guards its slice with a
// mutex so Tail can be called by readers (HTTP handlers, the risk loop's
// mark-price lookup) that don't hold the book's lock.
type Log struct {
	mu     sync.RWMutex
	market string
	nextID uint64
	trades []Trade
	sink   Sink
}

// New creates an empty trade log for market, with no persistence mirror.
func New(market string) *Log {
	return &Log{market: market, sink: noopSink{}}
}

// SetSink attaches a persistence mirror. Passing nil restores the no-op
// sink.
func (l *Log) SetSink(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sink == nil {
		sink = noopSink{}
	}
	l.sink = sink
}

// Append assigns the next monotonic trade id and records the trade.
func (l *Log) Append(t Trade) Trade {
	l.mu.Lock()
	t.Market = l.market
	l.nextID++
	t.ID = l.nextID
	l.trades = append(l.trades, t)
	sink := l.sink
	l.mu.Unlock()

	sink.Mirror(t)
	return t
}

// Tail returns the last n trades, oldest first. n <= 0 returns nil.
func (l *Log) Tail(n int) []Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || len(l.trades) == 0 {
		return nil
	}
	if n > len(l.trades) {
		n = len(l.trades)
	}
	out := make([]Trade, n)
	copy(out, l.trades[len(l.trades)-n:])
	return out
}

// Last returns the most recent trade, whose price the mark-price
// derivation's first fallback branch uses.
func (l *Log) Last() (Trade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.trades) == 0 {
		return Trade{}, false
	}
	return l.trades[len(l.trades)-1], true
}

// Len returns the number of trades recorded.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

// MultiSink fans Append out to every one of its sinks, so the trade
// log's single SetSink hook can still serve both a persistence mirror
// and a live broadcaster (internal/storage.Store and
// internal/httpapi.Hub, respectively) at once.
type MultiSink []Sink

func (m MultiSink) Mirror(t Trade) {
	for _, sink := range m {
		sink.Mirror(t)
	}
}

var _ Sink = MultiSink(nil)

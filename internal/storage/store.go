// Package storage persists the trade tape and position history to
// disk so they survive restarts and can be replayed/audited
// independently of live matching (spec.md §4.2's "replays and audits"
// note, made concrete). It mirrors rather than sources: the hot
// matching path never reads from here, it only writes through the
// tradelog.Sink / position.Sink interfaces, following the same
// gorm+sqlite shape the example pack's database package uses.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"predictperp/internal/position"
	"predictperp/internal/tradelog"
)

// TradeRecord is the persisted row for one executed fill.
type TradeRecord struct {
	ID        uint64 `gorm:"primaryKey"`
	Market    string `gorm:"index"`
	Timestamp time.Time
	Price     decimal.Decimal `gorm:"type:decimal(20,8)"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,8)"`
	TakerID   string          `gorm:"index"`
	MakerID   string          `gorm:"index"`
	TakerSide int
	TakerFee  decimal.Decimal `gorm:"type:decimal(20,8)"`
	MakerFee  decimal.Decimal `gorm:"type:decimal(20,8)"`
}

// PositionRecord is the persisted row for one position snapshot. A row
// is written on every mutation (create, reduce, close, liquidate), so
// the table holds a history rather than just current state.
type PositionRecord struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	PositionID       uint64 `gorm:"index"`
	Account          string `gorm:"index"`
	Market           string `gorm:"index"`
	Side             int
	EntryPrice       decimal.Decimal `gorm:"type:decimal(20,8)"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,8)"`
	Leverage         uint32
	Margin           decimal.Decimal `gorm:"type:decimal(20,8)"`
	UnrealizedPnL    decimal.Decimal `gorm:"type:decimal(20,8)"`
	RealizedPnL      decimal.Decimal `gorm:"type:decimal(20,8)"`
	LiquidatorReward decimal.Decimal `gorm:"type:decimal(20,8)"`
	Status           int
	RecordedAt       time.Time
}

// Store is a gorm+sqlite mirror of the trade tape and position history.
type Store struct {
	db *gorm.DB
}

// New opens (creating if necessary) a sqlite database at path and
// migrates its schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&TradeRecord{}, &PositionRecord{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	log.Info().Str("path", path).Msg("storage: sqlite store ready")
	return &Store{db: db}, nil
}

// Mirror persists one trade synchronously, on the caller's goroutine:
// called from tradelog.Log.Append, the insert runs inside the matching
// path. Failures are logged, never propagated.
func (s *Store) Mirror(t tradelog.Trade) {
	record := TradeRecord{
		ID:        t.ID,
		Market:    t.Market,
		Timestamp: t.Timestamp,
		Price:     t.Price,
		Quantity:  t.Quantity,
		TakerID:   t.TakerID,
		MakerID:   t.MakerID,
		TakerSide: int(t.TakerSide),
		TakerFee:  t.TakerFee,
		MakerFee:  t.MakerFee,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Uint64("trade_id", t.ID).Msg("storage: trade mirror failed")
	}
}

// MirrorPosition persists a position snapshot. Named distinctly from
// Mirror so Store can implement both tradelog.Sink and a position sink
// without an ambiguous method set.
func (s *Store) MirrorPosition(p position.Position) {
	record := PositionRecord{
		PositionID:       p.ID,
		Account:          p.Account,
		Market:           p.Market,
		Side:             int(p.Side),
		EntryPrice:       p.EntryPrice,
		Quantity:         p.Quantity,
		Leverage:         p.Leverage,
		Margin:           p.Margin,
		UnrealizedPnL:    p.UnrealizedPnL,
		RealizedPnL:      p.RealizedPnL,
		LiquidatorReward: p.LiquidatorReward,
		Status:           int(p.Status),
		RecordedAt:       time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Uint64("position_id", p.ID).Msg("storage: position mirror failed")
	}
}

// RecentTrades returns the last n persisted trades for market, newest
// last.
func (s *Store) RecentTrades(market string, n int) ([]TradeRecord, error) {
	var records []TradeRecord
	err := s.db.Where("market = ?", market).Order("id desc").Limit(n).Find(&records).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// PositionHistory returns every persisted snapshot for account, oldest
// first.
func (s *Store) PositionHistory(account string) ([]PositionRecord, error) {
	var records []PositionRecord
	err := s.db.Where("account = ?", account).Order("recorded_at asc").Find(&records).Error
	return records, err
}

// positionSink adapts Store.MirrorPosition to the position.Sink
// interface (Mirror(Position)), since Store's own Mirror method already
// serves tradelog.Sink with a different signature.
type positionSink struct{ store *Store }

// PositionSink returns a position.Sink backed by this store.
func (s *Store) PositionSink() position.Sink {
	return positionSink{store: s}
}

func (p positionSink) Mirror(pos position.Position) {
	p.store.MirrorPosition(pos)
}

var (
	_ tradelog.Sink = (*Store)(nil)
	_ position.Sink = positionSink{}
)

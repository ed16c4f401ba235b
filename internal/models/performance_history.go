package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceHistoryPoint is one append-only time-series row per poll.
// Change percentages are versus the immediately preceding point, not
// versus entry, so a velocity curve can be reconstructed.
type PerformanceHistoryPoint struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	CallID uint64 `gorm:"not null;index"`

	ObservedAt     time.Time `gorm:"not null;index"`
	DecisionStatus string    `gorm:"type:varchar(10)"`

	ReferencePrice decimal.Decimal  `gorm:"type:numeric(30,18);not null;default:0"`
	PriceUSD       *decimal.Decimal `gorm:"type:numeric(30,18)"`
	LiquidityUSD   *decimal.Decimal `gorm:"type:numeric(30,10)"`
	TotalLiquidity *decimal.Decimal `gorm:"type:numeric(30,10)"`
	MarketCap      *decimal.Decimal `gorm:"type:numeric(30,10)"`

	GainLossPct        *float64 `gorm:""`
	PriceChangePct     *float64 `gorm:""`
	LiquidityChangePct *float64 `gorm:""`
	MarketCapChangePct *float64 `gorm:""`

	AliveStatus string `gorm:"type:varchar(10)"`
	RugPull     *bool  `gorm:""`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PerformanceHistoryPoint) TableName() string {
	return "performance_history"
}

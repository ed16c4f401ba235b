package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Checkpoint labels, ordered. The tracker maps elapsed time to the
// largest threshold reached and never regresses a call's label.
const (
	Checkpoint15m = "15m"
	Checkpoint30m = "30m"
	Checkpoint1h  = "1h"
	Checkpoint4h  = "4h"
	Checkpoint24h = "24h"
	Checkpoint7d  = "7d"
	Checkpoint30d = "30d"
)

// PerformanceRecord holds the current rolled-up tracking state for one
// call. Extremes are monotonic ratchets; the rug flag is sticky.
type PerformanceRecord struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	CallID uint64 `gorm:"not null;uniqueIndex"`

	LastUpdated time.Time `gorm:"not null"`

	CurrentMarketCap *decimal.Decimal `gorm:"type:numeric(30,10)"`
	CurrentLiquidity *decimal.Decimal `gorm:"type:numeric(30,10)"`

	MaxPriceSinceEntry *decimal.Decimal `gorm:"type:numeric(30,18)"`
	MinPriceSinceEntry *decimal.Decimal `gorm:"type:numeric(30,18)"`

	// Percent versus entry price; MaxLossObserved is floored at -100.
	MaxGainObserved *float64 `gorm:""`
	MaxLossObserved *float64 `gorm:""`

	AliveStatus string `gorm:"type:varchar(10)"`
	RugPull     bool   `gorm:"not null;default:false"`

	TimeToMaxGainHours *float64   `gorm:""`
	MaxGainAt          *time.Time `gorm:""`
	TimeToRugHours     *float64   `gorm:""`

	Checkpoint string `gorm:"type:varchar(5)"`

	// First price observed at or after each threshold; write-once.
	Price15mLater *decimal.Decimal `gorm:"type:numeric(30,18)"`
	Price30mLater *decimal.Decimal `gorm:"type:numeric(30,18)"`
	Price1hLater  *decimal.Decimal `gorm:"type:numeric(30,18)"`
	Price4hLater  *decimal.Decimal `gorm:"type:numeric(30,18)"`
	Price24hLater *decimal.Decimal `gorm:"type:numeric(30,18)"`
	Price7dLater  *decimal.Decimal `gorm:"type:numeric(30,18)"`
	Price30dLater *decimal.Decimal `gorm:"type:numeric(30,18)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PerformanceRecord) TableName() string {
	return "performance_records"
}

var checkpointOrder = map[string]int{
	Checkpoint15m: 1,
	Checkpoint30m: 2,
	Checkpoint1h:  3,
	Checkpoint4h:  4,
	Checkpoint24h: 5,
	Checkpoint7d:  6,
	Checkpoint30d: 7,
}

// CheckpointRank returns the ordering rank of a checkpoint label, 0 for
// none/unknown.
func CheckpointRank(label string) int {
	return checkpointOrder[label]
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Snapshot is the market/security state captured at first analysis.
// Created once per call and never mutated.
type Snapshot struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	CallID uint64 `gorm:"not null;uniqueIndex"`

	SnapshotAt time.Time `gorm:"not null"`

	PriceUSD          decimal.Decimal `gorm:"type:numeric(30,18);not null;default:0"`
	LiquidityUSD      decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	MainPoolLiquidity decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalLiquidity    decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	MainPoolDex       string          `gorm:"type:varchar(50)"`
	MarketCap         decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	Volume24h         decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	HolderCount     *int     `gorm:""`
	TopHolderPct    *float64 `gorm:""`
	Top10HoldersPct *float64 `gorm:""`
	TokenAgeHours   float64  `gorm:"not null;default:0"`

	MintAuthorityRevoked   *bool `gorm:""`
	FreezeAuthorityRevoked *bool `gorm:""`

	SecurityScore *float64 `gorm:""`
	SafetyScore   float64  `gorm:"not null;default:0"`
	HoneypotRisk  string   `gorm:"type:varchar(10)"`
	MomentumScore float64  `gorm:"not null;default:0"`

	BuyCount24h    *int     `gorm:""`
	SellCount24h   *int     `gorm:""`
	PriceChange5m  *float64 `gorm:""`
	PriceChange1h  *float64 `gorm:""`
	PriceChange24h *float64 `gorm:""`

	RawData datatypes.JSON `gorm:""`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision is the human disposition for a call. A WATCH may convert to
// TRADE (new entry price/timestamp) or demote to PASS; a TRADE is closed
// by recording an exit price.
type Decision struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	CallID uint64 `gorm:"not null;index"`

	Status    string    `gorm:"type:varchar(10);not null;index"`
	DecidedAt time.Time `gorm:"not null"`

	TradeSizeUSD *decimal.Decimal `gorm:"type:numeric(30,10)"`
	EntryPrice   *decimal.Decimal `gorm:"type:numeric(30,18)"`
	EntryAt      *time.Time       `gorm:""`
	ExitPrice    *decimal.Decimal `gorm:"type:numeric(30,18)"`

	HoldDurationHours *float64 `gorm:""`

	Reasoning       string `gorm:"type:text"`
	Confidence      int    `gorm:"not null;default:0"`
	EmotionalState  string `gorm:"type:varchar(50)"`
	ChartAssessment string `gorm:"type:varchar(50)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Decision) TableName() string {
	return "decisions"
}

// Open reports whether the decision still needs performance polling:
// WATCH, or TRADE without a recorded exit.
func (d Decision) Open() bool {
	switch d.Status {
	case DecisionWatch:
		return true
	case DecisionTrade:
		return d.ExitPrice == nil || d.ExitPrice.IsZero()
	default:
		return false
	}
}

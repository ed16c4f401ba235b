package models

import (
	"time"
)

// WalletStats is the tracked-wallet registry row plus its derived
// performance aggregate.
type WalletStats struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	WalletAddress string `gorm:"type:varchar(100);not null;uniqueIndex"`
	WalletName    string `gorm:"type:varchar(100);not null"`

	TotalTrackedBuys int     `gorm:"not null;default:0"`
	WinRate          float64 `gorm:"not null;default:0"`
	AvgGain          float64 `gorm:"not null;default:0"`

	Tier  string `gorm:"type:varchar(1);not null;default:'C'"`
	Notes string `gorm:"type:text"`

	AddedAt   time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (WalletStats) TableName() string {
	return "tracked_wallets"
}

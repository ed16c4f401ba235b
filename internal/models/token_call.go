package models

import (
	"time"
)

// Decision statuses.
const (
	DecisionTrade = "TRADE"
	DecisionPass  = "PASS"
	DecisionWatch = "WATCH"
)

// Alive statuses for tracked tokens. Unknown means the provider could not
// be reached; it must never be treated as token death.
const (
	AliveYes     = "yes"
	AliveNo      = "no"
	AliveUnknown = "unknown"
)

// TokenCall is the aggregate root: one row per unique contract address.
type TokenCall struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	ContractAddress string `gorm:"type:varchar(100);not null;uniqueIndex"`
	TokenSymbol     string `gorm:"type:varchar(50)"`
	TokenName       string `gorm:"type:varchar(200)"`

	// Sources is a comma-joined, lowercase-normalized list of free-text
	// labels naming who surfaced the call.
	Sources    string `gorm:"type:varchar(500);index"`
	Blockchain string `gorm:"type:varchar(30);not null;default:'solana'"`

	ReceivedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (TokenCall) TableName() string {
	return "token_calls"
}

// SourceList splits the comma-joined label set into individual labels.
func (c TokenCall) SourceList() []string {
	return SplitSources(c.Sources)
}

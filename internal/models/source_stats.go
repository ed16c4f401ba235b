package models

import (
	"strings"
	"time"
)

// Tier letters for sources and wallets.
const (
	TierS = "S"
	TierA = "A"
	TierB = "B"
	TierC = "C"
)

// SourceStats is a derived aggregate per normalized source label. It is
// fully recomputed on change, never incrementally adjusted.
type SourceStats struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	SourceName string `gorm:"type:varchar(100);not null;uniqueIndex"`

	TotalCalls  int `gorm:"not null;default:0"`
	CallsTraded int `gorm:"not null;default:0"`

	WinRate    float64 `gorm:"not null;default:0"`
	HitRate    float64 `gorm:"not null;default:0"`
	RugRate    float64 `gorm:"not null;default:0"`
	AvgMaxGain float64 `gorm:"not null;default:0"`

	Tier string `gorm:"type:varchar(1);not null;default:'C'"`

	LastUpdated time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (SourceStats) TableName() string {
	return "source_stats"
}

// NormalizeSource lowercases and trims a free-text source label.
func NormalizeSource(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// SplitSources splits a comma-joined label set, dropping empties.
func SplitSources(joined string) []string {
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := NormalizeSource(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinSources merges label sets, normalizing and de-duplicating while
// preserving first-seen order.
func JoinSources(existing string, extra ...string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, label := range append(SplitSources(existing), extra...) {
		s := NormalizeSource(label)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return strings.Join(out, ",")
}

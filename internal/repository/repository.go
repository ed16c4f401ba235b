package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"memetracker/internal/models"
)

// Repository is the persistence port for the tracking core. The gorm
// implementation lives in repository/gorm; tests use in-memory stubs.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Token calls.
	CreateCall(ctx context.Context, item *models.TokenCall) error
	GetCallByAddress(ctx context.Context, address string) (*models.TokenCall, error)
	GetCallByID(ctx context.Context, id uint64) (*models.TokenCall, error)
	UpdateCallSources(ctx context.Context, id uint64, sources string) error
	ListCalls(ctx context.Context, params ListCallsParams) ([]models.TokenCall, error)
	CountCalls(ctx context.Context) (int64, error)

	// Snapshots (one per call, newest wins).
	UpsertSnapshot(ctx context.Context, item *models.Snapshot) error
	GetSnapshotByCallID(ctx context.Context, callID uint64) (*models.Snapshot, error)

	// Decisions.
	UpsertDecision(ctx context.Context, item *models.Decision) error
	GetDecisionByCallID(ctx context.Context, callID uint64) (*models.Decision, error)
	ListOpenPositions(ctx context.Context, params OpenPositionsParams) ([]OpenPosition, error)

	// Performance tracking.
	GetPerformanceRecord(ctx context.Context, callID uint64) (*models.PerformanceRecord, error)
	SaveTrackingResult(ctx context.Context, record *models.PerformanceRecord, point *models.PerformanceHistoryPoint) error
	LatestHistoryPoint(ctx context.Context, callID uint64) (*models.PerformanceHistoryPoint, error)
	ListHistory(ctx context.Context, callID uint64, limit int) ([]models.PerformanceHistoryPoint, error)

	// Aggregation inputs for the tiering pass.
	ListSourceOutcomes(ctx context.Context, source string) ([]SourceOutcome, error)
	ListTrackedSourceNames(ctx context.Context) ([]string, error)

	// Source stats.
	UpsertSourceStats(ctx context.Context, item *models.SourceStats) error
	GetSourceStats(ctx context.Context, source string) (*models.SourceStats, error)
	ListSourceStats(ctx context.Context, params ListStatsParams) ([]models.SourceStats, error)

	// Tracked wallets.
	UpsertWallet(ctx context.Context, item *models.WalletStats) error
	GetWalletByAddress(ctx context.Context, address string) (*models.WalletStats, error)
	ListWallets(ctx context.Context, activeOnly bool) ([]models.WalletStats, error)
	DeleteWallet(ctx context.Context, address string) error
}

// OpenPosition is a tracking candidate: an open decision joined with its
// call and, when one exists yet, its performance record.
type OpenPosition struct {
	Call     models.TokenCall
	Decision models.Decision
	Record   *models.PerformanceRecord
}

// SourceOutcome is one call's outcome attributed to a source or wallet,
// the raw material for tier aggregation. The decision columns are zero
// for calls that were never decided on; win rate is derived from entry
// and exit prices of exited trades only.
type SourceOutcome struct {
	CallID         uint64
	DecisionStatus string
	EntryPrice     *decimal.Decimal
	ExitPrice      *decimal.Decimal
	MaxGainPct     *float64
	RugPull        bool
	Checkpoint     string
}

type ListCallsParams struct {
	Limit  int
	Offset int
	Source *string
	Since  *time.Time
}

// OpenPositionsParams filters the tracking batch. MinAge skips tokens
// called too recently to have meaningful movement; Statuses defaults to
// the open decision statuses.
type OpenPositionsParams struct {
	Limit    int
	MinAge   time.Duration
	Statuses []string
	Now      time.Time
}

type ListStatsParams struct {
	Limit  int
	Offset int
	Tier   *string
}

// Package stats rebuilds the derived per-source and per-wallet
// performance aggregates and assigns reliability tiers.
package stats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"memetracker/internal/models"
	"memetracker/internal/repository"
)

type Service struct {
	Repo   repository.Repository
	Logger *zap.Logger

	// HitThresholdPct is the max-gain percentage that counts as a hit.
	HitThresholdPct float64

	now func() time.Time
}

func New(repo repository.Repository, hitThresholdPct float64, logger *zap.Logger) *Service {
	if hitThresholdPct <= 0 {
		hitThresholdPct = 50
	}
	return &Service{
		Repo:            repo,
		Logger:          logger,
		HitThresholdPct: hitThresholdPct,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate is the derived performance summary for one source label.
type Aggregate struct {
	TotalCalls  int
	CallsTraded int
	WinRate     float64
	HitRate     float64
	RugRate     float64
	AvgMaxGain  float64
}

// Compute folds call outcomes into an aggregate. Win rate is judged on
// realized trades only: exit price above entry, among TRADE decisions
// with a recorded exit. Hit and rug rates run over every call, and the
// average counts positive max gains only — losers and rugs are already
// penalized through the rates.
func Compute(outcomes []repository.SourceOutcome, hitThresholdPct float64) Aggregate {
	agg := Aggregate{TotalCalls: len(outcomes)}
	if agg.TotalCalls == 0 {
		return agg
	}

	var exited, wins, hits, rugs, gainers int
	var gainSum float64
	for _, o := range outcomes {
		if o.DecisionStatus == models.DecisionTrade {
			agg.CallsTraded++
			if o.EntryPrice != nil && o.ExitPrice != nil && o.ExitPrice.IsPositive() {
				exited++
				if o.ExitPrice.GreaterThan(*o.EntryPrice) {
					wins++
				}
			}
		}
		gain := 0.0
		if o.MaxGainPct != nil {
			gain = *o.MaxGainPct
		}
		if gain > 0 {
			gainers++
			gainSum += gain
		}
		if gain >= hitThresholdPct {
			hits++
		}
		if o.RugPull {
			rugs++
		}
	}

	total := float64(agg.TotalCalls)
	agg.HitRate = float64(hits) / total
	agg.RugRate = float64(rugs) / total
	if exited > 0 {
		agg.WinRate = float64(wins) / float64(exited)
	}
	if gainers > 0 {
		agg.AvgMaxGain = gainSum / float64(gainers)
	}
	return agg
}

// RecomputeSources rebuilds the stats rows for the given source labels.
// Labels that are tracked wallet addresses also refresh the wallet row.
func (s *Service) RecomputeSources(ctx context.Context, sources []string) error {
	for _, source := range sources {
		source = models.NormalizeSource(source)
		if source == "" {
			continue
		}
		if err := s.recomputeOne(ctx, source); err != nil {
			return fmt.Errorf("recompute %s: %w", source, err)
		}
	}
	return nil
}

// RebuildAll recomputes every source that appears on any call.
func (s *Service) RebuildAll(ctx context.Context) error {
	sources, err := s.Repo.ListTrackedSourceNames(ctx)
	if err != nil {
		return err
	}
	if err := s.RecomputeSources(ctx, sources); err != nil {
		return err
	}
	s.Logger.Info("stats rebuilt", zap.Int("sources", len(sources)))
	return nil
}

func (s *Service) recomputeOne(ctx context.Context, source string) error {
	outcomes, err := s.Repo.ListSourceOutcomes(ctx, source)
	if err != nil {
		return err
	}
	agg := Compute(outcomes, s.HitThresholdPct)
	now := s.now()

	item := &models.SourceStats{
		SourceName:  source,
		TotalCalls:  agg.TotalCalls,
		CallsTraded: agg.CallsTraded,
		WinRate:     agg.WinRate,
		HitRate:     agg.HitRate,
		RugRate:     agg.RugRate,
		AvgMaxGain:  agg.AvgMaxGain,
		Tier:        SourceTier(agg),
		LastUpdated: now,
	}
	if err := s.Repo.UpsertSourceStats(ctx, item); err != nil {
		return err
	}

	wallet, err := s.Repo.GetWalletByAddress(ctx, source)
	if err != nil {
		return err
	}
	if wallet == nil {
		return nil
	}
	wallet.TotalTrackedBuys = agg.TotalCalls
	wallet.WinRate = agg.WinRate
	wallet.AvgGain = agg.AvgMaxGain
	wallet.Tier = WalletTier(agg.WinRate, agg.AvgMaxGain)
	return s.Repo.UpsertWallet(ctx, wallet)
}

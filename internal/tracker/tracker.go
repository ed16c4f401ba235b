// Package tracker polls open positions, ratchets their performance
// extremes, detects rug pulls, and appends the per-poll history series.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"memetracker/internal/config"
	"memetracker/internal/models"
	"memetracker/internal/provider"
	"memetracker/internal/repository"
)

// rugLiquidityFloor and rugPriceFraction define the rug heuristic: total
// liquidity drained below the floor, or price collapsed to under a tenth
// of entry.
const (
	rugLiquidityFloor = 1000.0
	rugPriceFraction  = 0.10
)

// StatsRecomputer is implemented by the stats service; the tracker
// triggers it for sources touched in a batch.
type StatsRecomputer interface {
	RecomputeSources(ctx context.Context, sources []string) error
}

type Tracker struct {
	Repo       repository.Repository
	Market     *provider.MarketClient
	Stats      StatsRecomputer
	Logger     *zap.Logger
	DeadLetter *DeadLetter

	Mode           string
	MaxConcurrency int
	RequestPause   time.Duration
	MinAge         time.Duration
	BatchLimit     int

	now func() time.Time
}

func New(repo repository.Repository, market *provider.MarketClient, stats StatsRecomputer, dl *DeadLetter, cfg config.TrackerConfig, logger *zap.Logger) *Tracker {
	return &Tracker{
		Repo:           repo,
		Market:         market,
		Stats:          stats,
		Logger:         logger,
		DeadLetter:     dl,
		Mode:           cfg.Mode,
		MaxConcurrency: cfg.MaxConcurrency,
		RequestPause:   cfg.RequestPause,
		MinAge:         time.Duration(cfg.MinAgeHours * float64(time.Hour)),
		BatchLimit:     cfg.BatchLimit,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce performs one tracking batch over all open positions, then
// recomputes stats for every source touched.
func (t *Tracker) RunOnce(ctx context.Context) error {
	positions, err := t.Repo.ListOpenPositions(ctx, repository.OpenPositionsParams{
		Limit:  t.BatchLimit,
		MinAge: t.MinAge,
		Now:    t.now(),
	})
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return nil
	}
	t.Logger.Info("tracking batch started", zap.Int("positions", len(positions)))

	var touched []string
	if t.Mode == "pool" && t.MaxConcurrency > 1 {
		touched = t.runPool(ctx, positions)
	} else {
		touched = t.runSequential(ctx, positions)
	}

	touched = dedupeSources(touched)
	if t.Stats != nil && len(touched) > 0 {
		if err := t.Stats.RecomputeSources(ctx, touched); err != nil {
			t.Logger.Warn("stats recompute failed", zap.Error(err))
		}
	}
	t.Logger.Info("tracking batch finished",
		zap.Int("positions", len(positions)),
		zap.Int("sources_touched", len(touched)))
	return nil
}

func (t *Tracker) runSequential(ctx context.Context, positions []repository.OpenPosition) []string {
	var touched []string
	for i, pos := range positions {
		if ctx.Err() != nil {
			break
		}
		touched = append(touched, t.trackOne(ctx, pos)...)
		if t.RequestPause > 0 && i < len(positions)-1 {
			select {
			case <-ctx.Done():
				return touched
			case <-time.After(t.RequestPause):
			}
		}
	}
	return touched
}

func (t *Tracker) runPool(ctx context.Context, positions []repository.OpenPosition) []string {
	sem := make(chan struct{}, t.MaxConcurrency)
	var (
		mu      sync.Mutex
		touched []string
		wg      sync.WaitGroup
	)
	for _, pos := range positions {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(pos repository.OpenPosition) {
			defer wg.Done()
			defer func() { <-sem }()
			srcs := t.trackOne(ctx, pos)
			mu.Lock()
			touched = append(touched, srcs...)
			mu.Unlock()
		}(pos)
	}
	wg.Wait()
	return touched
}

// trackOne polls one position and persists the result. It returns the
// source labels whose stats are now stale.
func (t *Tracker) trackOne(ctx context.Context, pos repository.OpenPosition) []string {
	// A confirmed-dead token is terminal; nothing left to observe.
	if pos.Record != nil && pos.Record.AliveStatus == models.AliveNo {
		return nil
	}

	entry, ok := t.entryPrice(ctx, pos)
	if !ok {
		t.Logger.Warn("no entry price, skipping",
			zap.String("address", pos.Call.ContractAddress))
		return nil
	}

	now := t.now()
	result := t.Market.Fetch(ctx, pos.Call.Blockchain, pos.Call.ContractAddress)

	record := pos.Record
	if record == nil {
		record = &models.PerformanceRecord{CallID: pos.Call.ID, AliveStatus: models.AliveUnknown}
	}
	record.LastUpdated = now

	var point *models.PerformanceHistoryPoint
	switch {
	case result.Data != nil:
		applyMarketData(record, entry, result.Data, pos.Call.ReceivedAt, now)
		point = t.historyPoint(ctx, pos, record, entry, result.Data, now)
	case result.Absent:
		// A delisted token is a rug from the caller's side.
		record.AliveStatus = models.AliveNo
		if !record.RugPull {
			record.RugPull = true
			hours := now.Sub(pos.Call.ReceivedAt).Hours()
			record.TimeToRugHours = &hours
			floor := -100.0
			record.MaxLossObserved = &floor
		}
		point = nullHistoryPoint(pos, entry, models.AliveNo, record.RugPull, now)
		t.Logger.Info("token confirmed gone",
			zap.String("address", pos.Call.ContractAddress))
	default:
		record.AliveStatus = models.AliveUnknown
		point = nullHistoryPoint(pos, entry, models.AliveUnknown, record.RugPull, now)
		t.deadLetter(pos, "all providers failed", now)
	}

	if err := t.Repo.SaveTrackingResult(ctx, record, point); err != nil {
		t.Logger.Error("save tracking result failed",
			zap.String("address", pos.Call.ContractAddress),
			zap.Error(err))
		return nil
	}
	return pos.Call.SourceList()
}

func (t *Tracker) entryPrice(ctx context.Context, pos repository.OpenPosition) (decimal.Decimal, bool) {
	if pos.Decision.EntryPrice != nil && !pos.Decision.EntryPrice.IsZero() {
		return *pos.Decision.EntryPrice, true
	}
	snap, err := t.Repo.GetSnapshotByCallID(ctx, pos.Call.ID)
	if err != nil || snap == nil || snap.PriceUSD.IsZero() {
		return decimal.Zero, false
	}
	return snap.PriceUSD, true
}

func (t *Tracker) deadLetter(pos repository.OpenPosition, reason string, now time.Time) {
	if t.DeadLetter == nil {
		return
	}
	err := t.DeadLetter.Append(DeadLetterEntry{
		At:              now,
		CallID:          pos.Call.ID,
		ContractAddress: pos.Call.ContractAddress,
		TokenSymbol:     pos.Call.TokenSymbol,
		Reason:          reason,
	})
	if err != nil {
		t.Logger.Warn("dead letter append failed", zap.Error(err))
	}
}

// applyMarketData folds one observation into the rolled-up record. All
// extremes are strict ratchets; the rug flag and its timestamp are
// write-once.
func applyMarketData(rec *models.PerformanceRecord, entry decimal.Decimal, md *provider.MarketData, receivedAt, now time.Time) {
	price := decimal.NewFromFloat(md.PriceUSD)
	liquidity := decimal.NewFromFloat(md.TotalLiquidity)
	marketCap := decimal.NewFromFloat(md.MarketCap)

	rec.AliveStatus = models.AliveYes
	rec.CurrentLiquidity = &liquidity
	rec.CurrentMarketCap = &marketCap

	if rec.MaxPriceSinceEntry == nil || price.GreaterThan(*rec.MaxPriceSinceEntry) {
		p := price
		rec.MaxPriceSinceEntry = &p
	}
	if rec.MinPriceSinceEntry == nil || price.LessThan(*rec.MinPriceSinceEntry) {
		p := price
		rec.MinPriceSinceEntry = &p
	}

	gain := gainPct(entry, price)
	if rec.MaxGainObserved == nil || gain > *rec.MaxGainObserved {
		g := gain
		rec.MaxGainObserved = &g
		at := now
		rec.MaxGainAt = &at
		hours := now.Sub(receivedAt).Hours()
		rec.TimeToMaxGainHours = &hours
	}
	loss := gain
	if loss < -100 {
		loss = -100
	}
	if rec.MaxLossObserved == nil || loss < *rec.MaxLossObserved {
		l := loss
		rec.MaxLossObserved = &l
	}

	rugged := md.TotalLiquidity < rugLiquidityFloor ||
		price.LessThan(entry.Mul(decimal.NewFromFloat(rugPriceFraction)))
	if rugged && !rec.RugPull {
		rec.RugPull = true
		hours := now.Sub(receivedAt).Hours()
		rec.TimeToRugHours = &hours
		floor := -100.0
		rec.MaxLossObserved = &floor
	}

	advanceCheckpoint(rec, price, now.Sub(receivedAt))
}

var checkpointThresholds = []struct {
	Label string
	After time.Duration
}{
	{models.Checkpoint15m, 15 * time.Minute},
	{models.Checkpoint30m, 30 * time.Minute},
	{models.Checkpoint1h, time.Hour},
	{models.Checkpoint4h, 4 * time.Hour},
	{models.Checkpoint24h, 24 * time.Hour},
	{models.Checkpoint7d, 7 * 24 * time.Hour},
	{models.Checkpoint30d, 30 * 24 * time.Hour},
}

// advanceCheckpoint moves the label to the largest threshold reached
// (never backwards) and stamps each write-once checkpoint price the first
// time its threshold is observed.
func advanceCheckpoint(rec *models.PerformanceRecord, price decimal.Decimal, elapsed time.Duration) {
	for _, cp := range checkpointThresholds {
		if elapsed < cp.After {
			break
		}
		if models.CheckpointRank(cp.Label) > models.CheckpointRank(rec.Checkpoint) {
			rec.Checkpoint = cp.Label
		}
		if slot := checkpointPriceSlot(rec, cp.Label); slot != nil && *slot == nil {
			p := price
			*slot = &p
		}
	}
}

func checkpointPriceSlot(rec *models.PerformanceRecord, label string) **decimal.Decimal {
	switch label {
	case models.Checkpoint15m:
		return &rec.Price15mLater
	case models.Checkpoint30m:
		return &rec.Price30mLater
	case models.Checkpoint1h:
		return &rec.Price1hLater
	case models.Checkpoint4h:
		return &rec.Price4hLater
	case models.Checkpoint24h:
		return &rec.Price24hLater
	case models.Checkpoint7d:
		return &rec.Price7dLater
	case models.Checkpoint30d:
		return &rec.Price30dLater
	default:
		return nil
	}
}

func (t *Tracker) historyPoint(ctx context.Context, pos repository.OpenPosition, rec *models.PerformanceRecord, entry decimal.Decimal, md *provider.MarketData, now time.Time) *models.PerformanceHistoryPoint {
	price := decimal.NewFromFloat(md.PriceUSD)
	liquidity := decimal.NewFromFloat(md.LiquidityUSD)
	total := decimal.NewFromFloat(md.TotalLiquidity)
	marketCap := decimal.NewFromFloat(md.MarketCap)
	gain := gainPct(entry, price)
	rug := rec.RugPull

	point := &models.PerformanceHistoryPoint{
		CallID:         pos.Call.ID,
		ObservedAt:     now,
		DecisionStatus: pos.Decision.Status,
		ReferencePrice: entry,
		PriceUSD:       &price,
		LiquidityUSD:   &liquidity,
		TotalLiquidity: &total,
		MarketCap:      &marketCap,
		GainLossPct:    &gain,
		AliveStatus:    models.AliveYes,
		RugPull:        &rug,
	}

	prev, err := t.Repo.LatestHistoryPoint(ctx, pos.Call.ID)
	if err != nil {
		t.Logger.Warn("previous history point lookup failed", zap.Error(err))
		return point
	}
	if prev != nil {
		point.PriceChangePct = decimalDeltaPct(prev.PriceUSD, price)
		point.LiquidityChangePct = decimalDeltaPct(prev.TotalLiquidity, total)
		point.MarketCapChangePct = decimalDeltaPct(prev.MarketCap, marketCap)
	}
	return point
}

func nullHistoryPoint(pos repository.OpenPosition, entry decimal.Decimal, alive string, rug bool, now time.Time) *models.PerformanceHistoryPoint {
	r := rug
	return &models.PerformanceHistoryPoint{
		CallID:         pos.Call.ID,
		ObservedAt:     now,
		DecisionStatus: pos.Decision.Status,
		ReferencePrice: entry,
		AliveStatus:    alive,
		RugPull:        &r,
	}
}

func gainPct(entry, price decimal.Decimal) float64 {
	if entry.IsZero() {
		return 0
	}
	pct, _ := price.Sub(entry).Div(entry).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// decimalDeltaPct is the percent change from a previous nullable value.
func decimalDeltaPct(prev *decimal.Decimal, cur decimal.Decimal) *float64 {
	if prev == nil || prev.IsZero() {
		return nil
	}
	pct, _ := cur.Sub(*prev).Div(*prev).Mul(decimal.NewFromInt(100)).Float64()
	return &pct
}

func dedupeSources(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

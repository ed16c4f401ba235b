package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memetracker/internal/models"
	"memetracker/internal/provider"
	"memetracker/internal/repository"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func marketData(price, totalLiquidity float64) *provider.MarketData {
	return &provider.MarketData{
		PriceUSD:       price,
		LiquidityUSD:   totalLiquidity,
		TotalLiquidity: totalLiquidity,
		MarketCap:      price * 1e9,
	}
}

func TestApplyMarketDataRatchets(t *testing.T) {
	entry := dec("1")
	received := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := &models.PerformanceRecord{CallID: 1}

	applyMarketData(rec, entry, marketData(2, 50000), received, received.Add(time.Hour))
	require.Equal(t, models.AliveYes, rec.AliveStatus)
	require.True(t, rec.MaxPriceSinceEntry.Equal(dec("2")))
	require.True(t, rec.MinPriceSinceEntry.Equal(dec("2")))
	require.InDelta(t, 100, *rec.MaxGainObserved, 1e-9)
	require.InDelta(t, 1, *rec.TimeToMaxGainHours, 1e-9)

	// Pullback ratchets the min and the loss but not the max.
	applyMarketData(rec, entry, marketData(1.5, 50000), received, received.Add(2*time.Hour))
	require.True(t, rec.MaxPriceSinceEntry.Equal(dec("2")))
	require.True(t, rec.MinPriceSinceEntry.Equal(dec("1.5")))
	require.InDelta(t, 100, *rec.MaxGainObserved, 1e-9)
	require.InDelta(t, 1, *rec.TimeToMaxGainHours, 1e-9)
	require.False(t, rec.RugPull)
}

func TestApplyMarketDataRugByLiquidityDrain(t *testing.T) {
	entry := dec("1")
	received := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := &models.PerformanceRecord{CallID: 1}

	applyMarketData(rec, entry, marketData(0.9, 500), received, received.Add(3*time.Hour))
	require.True(t, rec.RugPull)
	require.NotNil(t, rec.TimeToRugHours)
	require.InDelta(t, 3, *rec.TimeToRugHours, 1e-9)
	require.InDelta(t, -100, *rec.MaxLossObserved, 1e-9)

	// The flag and its timestamp are sticky through a fake recovery.
	applyMarketData(rec, entry, marketData(1.2, 80000), received, received.Add(5*time.Hour))
	require.True(t, rec.RugPull)
	require.InDelta(t, 3, *rec.TimeToRugHours, 1e-9)
}

func TestApplyMarketDataRugByPriceCollapse(t *testing.T) {
	entry := dec("1")
	received := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := &models.PerformanceRecord{CallID: 1}

	applyMarketData(rec, entry, marketData(0.05, 40000), received, received.Add(time.Hour))
	require.True(t, rec.RugPull)

	rec2 := &models.PerformanceRecord{CallID: 2}
	applyMarketData(rec2, entry, marketData(0.11, 40000), received, received.Add(time.Hour))
	require.False(t, rec2.RugPull)
}

func TestAdvanceCheckpointWriteOnce(t *testing.T) {
	rec := &models.PerformanceRecord{CallID: 1}

	advanceCheckpoint(rec, dec("2"), 16*time.Minute)
	require.Equal(t, models.Checkpoint15m, rec.Checkpoint)
	require.True(t, rec.Price15mLater.Equal(dec("2")))
	require.Nil(t, rec.Price30mLater)

	advanceCheckpoint(rec, dec("5"), 2*time.Hour)
	require.Equal(t, models.Checkpoint1h, rec.Checkpoint)
	// 15m stays at its first observation; the missed 30m and 1h slots
	// backfill with the first price seen after their thresholds.
	require.True(t, rec.Price15mLater.Equal(dec("2")))
	require.True(t, rec.Price30mLater.Equal(dec("5")))
	require.True(t, rec.Price1hLater.Equal(dec("5")))
	require.Nil(t, rec.Price4hLater)
}

func TestAdvanceCheckpointNeverRegresses(t *testing.T) {
	rec := &models.PerformanceRecord{CallID: 1, Checkpoint: models.Checkpoint4h}
	advanceCheckpoint(rec, dec("1"), 20*time.Minute)
	require.Equal(t, models.Checkpoint4h, rec.Checkpoint)
}

func TestGainPct(t *testing.T) {
	require.InDelta(t, 400, gainPct(dec("0.5"), dec("2.5")), 1e-9)
	require.InDelta(t, -90, gainPct(dec("1"), dec("0.1")), 1e-9)
	require.Zero(t, gainPct(decimal.Zero, dec("1")))
}

func TestDeadLetterCapEvictsOldest(t *testing.T) {
	path := t.TempDir() + "/dead.jsonl"
	dl := NewDeadLetter(path, 3)
	for i := 1; i <= 5; i++ {
		err := dl.Append(DeadLetterEntry{
			At:              time.Date(2026, 8, 1, 0, i, 0, 0, time.UTC),
			CallID:          uint64(i),
			ContractAddress: fmt.Sprintf("addr-%d", i),
			Reason:          "all providers failed",
		})
		require.NoError(t, err)
	}
	entries, err := dl.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, uint64(3), entries[0].CallID)
	require.Equal(t, uint64(5), entries[2].CallID)
}

// --- batch-level tests with stubs -------------------------------------------

type stubRepo struct {
	repository.Repository

	positions []repository.OpenPosition
	snapshots map[uint64]*models.Snapshot

	savedRecords []models.PerformanceRecord
	savedPoints  []models.PerformanceHistoryPoint
}

func (s *stubRepo) ListOpenPositions(ctx context.Context, params repository.OpenPositionsParams) ([]repository.OpenPosition, error) {
	return s.positions, nil
}

func (s *stubRepo) GetSnapshotByCallID(ctx context.Context, callID uint64) (*models.Snapshot, error) {
	return s.snapshots[callID], nil
}

func (s *stubRepo) LatestHistoryPoint(ctx context.Context, callID uint64) (*models.PerformanceHistoryPoint, error) {
	for i := len(s.savedPoints) - 1; i >= 0; i-- {
		if s.savedPoints[i].CallID == callID {
			return &s.savedPoints[i], nil
		}
	}
	return nil, nil
}

func (s *stubRepo) SaveTrackingResult(ctx context.Context, record *models.PerformanceRecord, point *models.PerformanceHistoryPoint) error {
	s.savedRecords = append(s.savedRecords, *record)
	if point != nil {
		s.savedPoints = append(s.savedPoints, *point)
	}
	return nil
}

type stubFetcher struct {
	name string
	data *provider.MarketData
	err  error
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) FetchMarket(ctx context.Context, chain, address string) (*provider.MarketData, error) {
	return f.data, f.err
}

func noDataErr(name string) error {
	return &provider.Error{Provider: name, Kind: provider.KindNoData, Err: fmt.Errorf("empty")}
}

func networkErr(name string) error {
	return &provider.Error{Provider: name, Kind: provider.KindNetwork, Err: fmt.Errorf("connection refused")}
}

func openPosition(id uint64, entry string) repository.OpenPosition {
	price := dec(entry)
	entryAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return repository.OpenPosition{
		Call: models.TokenCall{
			ID:              id,
			ContractAddress: fmt.Sprintf("token-%d", id),
			Sources:         "alpha_chat,scanner_bot",
			Blockchain:      "solana",
			ReceivedAt:      entryAt,
		},
		Decision: models.Decision{
			CallID:     id,
			Status:     models.DecisionTrade,
			EntryPrice: &price,
			EntryAt:    &entryAt,
		},
	}
}

func newTestTracker(repo repository.Repository, primary, fallback *stubFetcher, dl *DeadLetter) *Tracker {
	market := provider.NewMarketClient(primary, nil, zap.NewNop())
	if fallback != nil {
		market = provider.NewMarketClient(primary, fallback, zap.NewNop())
	}
	return &Tracker{
		Repo:       repo,
		Market:     market,
		Logger:     zap.NewNop(),
		DeadLetter: dl,
		Mode:       "sequential",
		now:        func() time.Time { return time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC) },
	}
}

func TestRunOnceHappyPath(t *testing.T) {
	repo := &stubRepo{positions: []repository.OpenPosition{openPosition(1, "1")}}
	tr := newTestTracker(repo, &stubFetcher{name: "primary", data: marketData(3, 60000)}, nil, nil)

	require.NoError(t, tr.RunOnce(context.Background()))
	require.Len(t, repo.savedRecords, 1)
	rec := repo.savedRecords[0]
	require.Equal(t, models.AliveYes, rec.AliveStatus)
	require.InDelta(t, 200, *rec.MaxGainObserved, 1e-9)
	require.False(t, rec.RugPull)
	require.Len(t, repo.savedPoints, 1)
	require.InDelta(t, 200, *repo.savedPoints[0].GainLossPct, 1e-9)
}

func TestRunOnceUnknownNeverKills(t *testing.T) {
	dl := NewDeadLetter(t.TempDir()+"/dead.jsonl", 10)
	repo := &stubRepo{positions: []repository.OpenPosition{openPosition(1, "1")}}
	primary := &stubFetcher{name: "primary", err: networkErr("primary")}
	fallback := &stubFetcher{name: "fallback", err: networkErr("fallback")}
	tr := newTestTracker(repo, primary, fallback, dl)

	require.NoError(t, tr.RunOnce(context.Background()))
	require.Len(t, repo.savedRecords, 1)
	rec := repo.savedRecords[0]
	require.Equal(t, models.AliveUnknown, rec.AliveStatus)
	require.False(t, rec.RugPull)

	point := repo.savedPoints[0]
	require.Nil(t, point.PriceUSD)
	require.Nil(t, point.GainLossPct)
	require.Equal(t, models.AliveUnknown, point.AliveStatus)

	entries, err := dl.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint64(1), entries[0].CallID)
}

func TestRunOnceConfirmedAbsentIsTerminal(t *testing.T) {
	repo := &stubRepo{positions: []repository.OpenPosition{openPosition(1, "1")}}
	primary := &stubFetcher{name: "primary", err: noDataErr("primary")}
	fallback := &stubFetcher{name: "fallback", err: noDataErr("fallback")}
	tr := newTestTracker(repo, primary, fallback, nil)

	require.NoError(t, tr.RunOnce(context.Background()))
	require.Len(t, repo.savedRecords, 1)
	require.Equal(t, models.AliveNo, repo.savedRecords[0].AliveStatus)

	// Delisting counts as a rug: flag, time-to-rug, and floored loss, and
	// the terminal history point carries the same verdict.
	require.True(t, repo.savedRecords[0].RugPull)
	require.NotNil(t, repo.savedRecords[0].TimeToRugHours)
	require.InDelta(t, 4, *repo.savedRecords[0].TimeToRugHours, 1e-9)
	require.InDelta(t, -100, *repo.savedRecords[0].MaxLossObserved, 1e-9)
	require.Len(t, repo.savedPoints, 1)
	require.Equal(t, models.AliveNo, repo.savedPoints[0].AliveStatus)
	require.NotNil(t, repo.savedPoints[0].RugPull)
	require.True(t, *repo.savedPoints[0].RugPull)

	// A dead position is skipped on the next batch.
	rec := repo.savedRecords[0]
	repo.positions[0].Record = &rec
	repo.savedRecords = nil
	require.NoError(t, tr.RunOnce(context.Background()))
	require.Empty(t, repo.savedRecords)
}

func TestRunOnceMixedFailureStaysUnknown(t *testing.T) {
	// Primary says no-data but the fallback merely failed: the token must
	// not be declared dead on partial evidence.
	repo := &stubRepo{positions: []repository.OpenPosition{openPosition(1, "1")}}
	primary := &stubFetcher{name: "primary", err: noDataErr("primary")}
	fallback := &stubFetcher{name: "fallback", err: networkErr("fallback")}
	tr := newTestTracker(repo, primary, fallback, nil)

	require.NoError(t, tr.RunOnce(context.Background()))
	require.Equal(t, models.AliveUnknown, repo.savedRecords[0].AliveStatus)
}

func TestRunOnceWatchEntryFromSnapshot(t *testing.T) {
	pos := openPosition(1, "1")
	pos.Decision.Status = models.DecisionWatch
	pos.Decision.EntryPrice = nil
	repo := &stubRepo{
		positions: []repository.OpenPosition{pos},
		snapshots: map[uint64]*models.Snapshot{1: {CallID: 1, PriceUSD: dec("2")}},
	}
	tr := newTestTracker(repo, &stubFetcher{name: "primary", data: marketData(3, 60000)}, nil, nil)

	require.NoError(t, tr.RunOnce(context.Background()))
	require.Len(t, repo.savedRecords, 1)
	require.InDelta(t, 50, *repo.savedRecords[0].MaxGainObserved, 1e-9)
	require.True(t, repo.savedPoints[0].ReferencePrice.Equal(dec("2")))
}

func TestHistoryDeltasAgainstPreviousPoint(t *testing.T) {
	repo := &stubRepo{positions: []repository.OpenPosition{openPosition(1, "1")}}
	primary := &stubFetcher{name: "primary", data: marketData(2, 50000)}
	tr := newTestTracker(repo, primary, nil, nil)

	require.NoError(t, tr.RunOnce(context.Background()))
	require.Nil(t, repo.savedPoints[0].PriceChangePct)

	primary.data = marketData(3, 25000)
	repo.positions[0].Record = &repo.savedRecords[0]
	require.NoError(t, tr.RunOnce(context.Background()))
	require.Len(t, repo.savedPoints, 2)
	second := repo.savedPoints[1]
	require.InDelta(t, 50, *second.PriceChangePct, 1e-9)
	require.InDelta(t, -50, *second.LiquidityChangePct, 1e-9)
}

package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"memetracker/internal/models"
	"memetracker/internal/repository"
)

// watched is a call that never became a trade.
func watched(maxGain float64, rug bool) repository.SourceOutcome {
	g := maxGain
	return repository.SourceOutcome{
		DecisionStatus: models.DecisionWatch,
		MaxGainPct:     &g,
		RugPull:        rug,
	}
}

// exitedTrade is a TRADE with a recorded exit; exit 0 means still open.
func exitedTrade(maxGain, entry, exit float64, rug bool) repository.SourceOutcome {
	g := maxGain
	e := decimal.NewFromFloat(entry)
	o := repository.SourceOutcome{
		DecisionStatus: models.DecisionTrade,
		EntryPrice:     &e,
		MaxGainPct:     &g,
		RugPull:        rug,
	}
	if exit > 0 {
		x := decimal.NewFromFloat(exit)
		o.ExitPrice = &x
	}
	return o
}

func TestComputeEmpty(t *testing.T) {
	agg := Compute(nil, 50)
	if agg.TotalCalls != 0 || agg.WinRate != 0 || agg.AvgMaxGain != 0 {
		t.Fatalf("empty aggregate = %+v", agg)
	}
}

func TestComputeRates(t *testing.T) {
	outcomes := []repository.SourceOutcome{
		exitedTrade(600, 1, 3, false),   // realized win
		exitedTrade(40, 1, 0, false),    // still open, no exit yet
		watched(-80, true),              // watched rug
		exitedTrade(-100, 1, 0.2, true), // realized loss
	}
	agg := Compute(outcomes, 50)
	if agg.TotalCalls != 4 {
		t.Fatalf("total = %d, want 4", agg.TotalCalls)
	}
	if agg.CallsTraded != 3 {
		t.Fatalf("calls traded = %d, want 3", agg.CallsTraded)
	}
	// One win among the two exited trades; the open trade and the watch
	// do not dilute it.
	if agg.WinRate != 0.5 {
		t.Fatalf("win rate = %v, want 0.5", agg.WinRate)
	}
	if agg.HitRate != 0.25 {
		t.Fatalf("hit rate = %v, want 0.25", agg.HitRate)
	}
	if agg.RugRate != 0.5 {
		t.Fatalf("rug rate = %v, want 0.5", agg.RugRate)
	}
	// Positive max gains only: (600+40)/2.
	if agg.AvgMaxGain != 320 {
		t.Fatalf("avg max gain = %v, want 320", agg.AvgMaxGain)
	}
}

func TestComputeWinRateNeedsExitedTrades(t *testing.T) {
	// Big paper gains on never-traded calls must not count as wins.
	outcomes := []repository.SourceOutcome{
		watched(80, false),
		watched(10, false),
	}
	agg := Compute(outcomes, 50)
	if agg.WinRate != 0 {
		t.Fatalf("win rate = %v, want 0 without exited trades", agg.WinRate)
	}
	if agg.CallsTraded != 0 {
		t.Fatalf("calls traded = %d, want 0", agg.CallsTraded)
	}
	if agg.HitRate != 0.5 {
		t.Fatalf("hit rate = %v, want 0.5", agg.HitRate)
	}
}

func TestComputeNilGainSkipsAverage(t *testing.T) {
	outcomes := []repository.SourceOutcome{
		{DecisionStatus: models.DecisionWatch},
		exitedTrade(100, 1, 2, false),
	}
	agg := Compute(outcomes, 50)
	if agg.WinRate != 1 {
		t.Fatalf("win rate = %v, want 1", agg.WinRate)
	}
	if agg.AvgMaxGain != 100 {
		t.Fatalf("avg max gain = %v, want 100", agg.AvgMaxGain)
	}
}

func TestSourceTierTable(t *testing.T) {
	cases := []struct {
		name string
		agg  Aggregate
		want string
	}{
		{"s tier", Aggregate{AvgMaxGain: 600, WinRate: 0.7, RugRate: 0.05}, models.TierS},
		{"rug rate blocks s", Aggregate{AvgMaxGain: 600, WinRate: 0.7, RugRate: 0.15}, models.TierA},
		{"a tier", Aggregate{AvgMaxGain: 350, WinRate: 0.55, RugRate: 0.1}, models.TierA},
		{"b tier", Aggregate{AvgMaxGain: 200, WinRate: 0.45, RugRate: 0.5}, models.TierB},
		{"c tier", Aggregate{AvgMaxGain: 100, WinRate: 0.9, RugRate: 0}, models.TierC},
		{"boundary is exclusive", Aggregate{AvgMaxGain: 500, WinRate: 0.61, RugRate: 0}, models.TierA},
	}
	for _, tc := range cases {
		if got := SourceTier(tc.agg); got != tc.want {
			t.Fatalf("%s: tier = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestWalletTierTable(t *testing.T) {
	cases := []struct {
		winRate float64
		avgGain float64
		want    string
	}{
		{0.8, 450, models.TierS},
		{0.65, 300, models.TierA},
		{0.55, 150, models.TierB},
		{0.55, 50, models.TierC},
		{0.3, 900, models.TierC},
	}
	for _, tc := range cases {
		if got := WalletTier(tc.winRate, tc.avgGain); got != tc.want {
			t.Fatalf("WalletTier(%v, %v) = %s, want %s", tc.winRate, tc.avgGain, got, tc.want)
		}
	}
}

type stubRepo struct {
	repository.Repository

	outcomes map[string][]repository.SourceOutcome
	wallets  map[string]*models.WalletStats

	savedStats   []models.SourceStats
	savedWallets []models.WalletStats
}

func (s *stubRepo) ListSourceOutcomes(ctx context.Context, source string) ([]repository.SourceOutcome, error) {
	return s.outcomes[source], nil
}

func (s *stubRepo) ListTrackedSourceNames(ctx context.Context) ([]string, error) {
	var out []string
	for name := range s.outcomes {
		out = append(out, name)
	}
	return out, nil
}

func (s *stubRepo) UpsertSourceStats(ctx context.Context, item *models.SourceStats) error {
	s.savedStats = append(s.savedStats, *item)
	return nil
}

func (s *stubRepo) GetWalletByAddress(ctx context.Context, address string) (*models.WalletStats, error) {
	return s.wallets[address], nil
}

func (s *stubRepo) UpsertWallet(ctx context.Context, item *models.WalletStats) error {
	s.savedWallets = append(s.savedWallets, *item)
	return nil
}

func TestRecomputeSourcesWritesStatsRow(t *testing.T) {
	repo := &stubRepo{
		outcomes: map[string][]repository.SourceOutcome{
			"alpha_chat": {
				exitedTrade(700, 1, 5, false),
				exitedTrade(600, 1, 4, false),
				exitedTrade(-50, 1, 0.5, false),
			},
		},
	}
	svc := New(repo, 50, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	if err := svc.RecomputeSources(context.Background(), []string{"Alpha_Chat"}); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(repo.savedStats) != 1 {
		t.Fatalf("saved %d stats rows, want 1", len(repo.savedStats))
	}
	row := repo.savedStats[0]
	if row.SourceName != "alpha_chat" {
		t.Fatalf("source = %q, want alpha_chat", row.SourceName)
	}
	if row.CallsTraded != 3 {
		t.Fatalf("calls traded = %d, want 3", row.CallsTraded)
	}
	// Two wins of three exited trades, no rugs, avg (700+600)/2.
	if row.Tier != models.TierS {
		t.Fatalf("tier = %s, want S", row.Tier)
	}
	if row.AvgMaxGain != 650 {
		t.Fatalf("avg max gain = %v, want 650", row.AvgMaxGain)
	}
	if len(repo.savedWallets) != 0 {
		t.Fatalf("unexpected wallet writes: %d", len(repo.savedWallets))
	}
}

func TestRecomputeSourcesUpdatesWalletRow(t *testing.T) {
	repo := &stubRepo{
		outcomes: map[string][]repository.SourceOutcome{
			"wallet123": {
				exitedTrade(500, 1, 6, false),
				exitedTrade(450, 1, 5, false),
				exitedTrade(400, 1, 4, false),
				exitedTrade(-20, 1, 0.8, false),
			},
		},
		wallets: map[string]*models.WalletStats{
			"wallet123": {WalletAddress: "wallet123", WalletName: "whale", Tier: models.TierC},
		},
	}
	svc := New(repo, 50, zap.NewNop())

	if err := svc.RecomputeSources(context.Background(), []string{"wallet123"}); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(repo.savedWallets) != 1 {
		t.Fatalf("saved %d wallets, want 1", len(repo.savedWallets))
	}
	w := repo.savedWallets[0]
	if w.TotalTrackedBuys != 4 {
		t.Fatalf("tracked buys = %d, want 4", w.TotalTrackedBuys)
	}
	// Three wins of four exits and avg gain 450 clear the top bar.
	if w.Tier != models.TierS {
		t.Fatalf("wallet tier = %s, want S", w.Tier)
	}
}

package scoring

import "testing"

func TestMomentumScoreNeutral(t *testing.T) {
	in := Input{LiquidityUSD: 100000, Volume24h: 50000}
	if got := MomentumScore(in); got != 5 {
		t.Fatalf("neutral score = %v, want 5", got)
	}
}

func TestMomentumScoreBuyPressure(t *testing.T) {
	in := Input{
		LiquidityUSD:  50000,
		Volume24h:     150000,
		BuyCount24h:   iPtr(300),
		SellCount24h:  iPtr(100),
		PriceChange5m: f64Ptr(30),
	}
	// +2 ratio, +2 weighted change, +1 vol/liq
	if got := MomentumScore(in); got != 10 {
		t.Fatalf("buy pressure score = %v, want 10", got)
	}
}

func TestMomentumScoreSellPressure(t *testing.T) {
	in := Input{
		LiquidityUSD:   100000,
		Volume24h:      2000,
		BuyCount24h:    iPtr(50),
		SellCount24h:   iPtr(200),
		PriceChange5m:  f64Ptr(-20),
		PriceChange1h:  f64Ptr(-15),
		PriceChange24h: f64Ptr(-40),
	}
	// -2 ratio, -2 weighted change, -1 vol/liq
	if got := MomentumScore(in); got != 0 {
		t.Fatalf("sell pressure score = %v, want 0", got)
	}
}

func TestMomentumScoreZeroSellsSkipsRatio(t *testing.T) {
	in := Input{
		LiquidityUSD: 100000,
		Volume24h:    50000,
		BuyCount24h:  iPtr(500),
		SellCount24h: iPtr(0),
	}
	if got := MomentumScore(in); got != 5 {
		t.Fatalf("zero sells score = %v, want 5", got)
	}
}

func TestWeightedChangeFavorsRecency(t *testing.T) {
	in := Input{
		PriceChange5m:  f64Ptr(20),
		PriceChange24h: f64Ptr(-20),
	}
	if got := weightedChange(in); got != 6 {
		t.Fatalf("weighted change = %v, want 6", got)
	}
}

func TestHolderDistributionTiers(t *testing.T) {
	cases := []struct {
		name      string
		top1      float64
		top10     float64
		wantTier  string
		wantScore float64
	}{
		{"healthy", 5, 25, DistributionHealthy, 10},
		{"concentrated", 17, 45, DistributionConcentrated, 6},
		{"risky", 22, 55, DistributionRisky, 3},
		{"critical top1", 35, 40, DistributionCritical, 0},
		{"critical top10", 10, 75, DistributionCritical, 0},
	}
	for _, tc := range cases {
		tier, score := HolderDistribution(&tc.top1, nil, &tc.top10)
		if tier != tc.wantTier || score != tc.wantScore {
			t.Fatalf("%s: got (%s, %v), want (%s, %v)", tc.name, tier, score, tc.wantTier, tc.wantScore)
		}
	}
}

func TestHolderDistributionUnknownIsHealthy(t *testing.T) {
	tier, score := HolderDistribution(nil, nil, nil)
	if tier != DistributionHealthy || score != 10 {
		t.Fatalf("unknown distribution = (%s, %v), want (HEALTHY, 10)", tier, score)
	}
}

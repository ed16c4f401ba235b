package scoring

import (
	"math/rand"
	"testing"
)

func boolPtr(b bool) *bool      { return &b }
func f64Ptr(f float64) *float64 { return &f }
func iPtr(i int) *int           { return &i }

func cleanToken() Input {
	return Input{
		LiquidityUSD:           150000,
		Volume24h:              90000,
		TokenAgeHours:          12,
		MintAuthorityRevoked:   boolPtr(true),
		FreezeAuthorityRevoked: boolPtr(true),
		TopHolderPct:           f64Ptr(4),
		Top10HoldersPct:        f64Ptr(22),
	}
}

func TestSafetyScoreCleanToken(t *testing.T) {
	got := SafetyScore(cleanToken())
	if got != 10 {
		t.Fatalf("clean token score = %v, want 10", got)
	}
}

func TestSafetyScoreDeductions(t *testing.T) {
	in := cleanToken()
	in.LiquidityUSD = 15000
	in.Volume24h = 5000
	if got := SafetyScore(in); got != 6.5 {
		// -3 low liquidity, honeypot stays LOW, bonus lost
		t.Fatalf("low liquidity score = %v, want 6.5", got)
	}

	in = cleanToken()
	in.MintAuthorityRevoked = boolPtr(false)
	if got := SafetyScore(in); got != 7 {
		t.Fatalf("mint authority score = %v, want 7", got)
	}

	in = cleanToken()
	in.MintAuthorityRevoked = nil
	if got := SafetyScore(in); got != 7 {
		t.Fatalf("unknown mint authority score = %v, want 7", got)
	}
}

func TestSafetyScoreTopHolderBands(t *testing.T) {
	in := cleanToken()
	in.TopHolderPct = f64Ptr(18)
	if got := SafetyScore(in); got != 9 {
		t.Fatalf("top holder 18%% score = %v, want 9", got)
	}
	in.TopHolderPct = f64Ptr(25)
	if got := SafetyScore(in); got != 8 {
		t.Fatalf("top holder 25%% score = %v, want 8", got)
	}
}

func TestSafetyScoreWorstCaseClampsToZero(t *testing.T) {
	in := Input{
		LiquidityUSD:  500,
		Volume24h:     0,
		TokenAgeHours: 0.1,
		TopHolderPct:  f64Ptr(60),
		SellTaxPct:    f64Ptr(25),
	}
	if got := SafetyScore(in); got != 0 {
		t.Fatalf("worst case score = %v, want 0", got)
	}
}

func TestSafetyScoreSmartMoneyBonus(t *testing.T) {
	in := cleanToken()
	in.SmartMoneyCount = 1
	if got := SafetyScore(in); got != 10 {
		t.Fatalf("bonus must not push score past 10, got %v", got)
	}

	in = cleanToken()
	in.LiquidityUSD = 15000
	in.Volume24h = 5000
	in.SmartMoneyCount = 3
	if got := SafetyScore(in); got != 8.5 {
		t.Fatalf("smart money recovery score = %v, want 8.5", got)
	}
}

func TestSafetyScoreAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		in := Input{
			LiquidityUSD:    rng.Float64() * 500000,
			Volume24h:       rng.Float64() * 2000000,
			TokenAgeHours:   rng.Float64() * 100,
			SmartMoneyCount: rng.Intn(6),
		}
		if rng.Intn(2) == 0 {
			in.MintAuthorityRevoked = boolPtr(rng.Intn(2) == 0)
		}
		if rng.Intn(2) == 0 {
			in.FreezeAuthorityRevoked = boolPtr(rng.Intn(2) == 0)
		}
		if rng.Intn(2) == 0 {
			in.TopHolderPct = f64Ptr(rng.Float64() * 100)
		}
		if rng.Intn(2) == 0 {
			in.SellTaxPct = f64Ptr(rng.Float64() * 30)
		}
		got := SafetyScore(in)
		if got < 0 || got > 10 {
			t.Fatalf("score %v out of range for input %+v", got, in)
		}
	}
}

func TestHoneypotRiskTiers(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want Risk
	}{
		{"clean", cleanToken(), RiskLow},
		{"high sell tax alone is medium", func() Input {
			in := cleanToken()
			in.SellTaxPct = f64Ptr(12)
			return in
		}(), RiskMedium},
		{"authorities live is high", Input{
			LiquidityUSD:  50000,
			TokenAgeHours: 5,
		}, RiskHigh},
		{"thin liquidity plus concentration", func() Input {
			in := cleanToken()
			in.LiquidityUSD = 3000
			in.TopHolderPct = f64Ptr(35)
			return in
		}(), RiskMedium},
	}
	for _, tc := range cases {
		if got := HoneypotRisk(tc.in); got != tc.want {
			t.Fatalf("%s: risk = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRedFlagsCleanTokenIsEmpty(t *testing.T) {
	if flags := RedFlags(cleanToken()); len(flags) != 0 {
		t.Fatalf("clean token flags = %v, want none", flags)
	}
}

func TestRedFlagsMatchDeductions(t *testing.T) {
	in := Input{
		LiquidityUSD:  1000,
		TokenAgeHours: 0.2,
	}
	flags := RedFlags(in)
	if len(flags) != 5 {
		t.Fatalf("flags = %v, want 5 entries", flags)
	}
}

// Package scoring holds the pure risk and momentum scoring functions.
// Every function is a deterministic function of its input with no hidden
// state, so scores are reproducible for any captured payload.
package scoring

// Input is the combined market/security view a token is scored on.
// Pointer fields are unknown when nil; unknown authority state is scored
// as not revoked, the conservative reading.
type Input struct {
	LiquidityUSD  float64
	Volume24h     float64
	TokenAgeHours float64

	MintAuthorityRevoked   *bool
	FreezeAuthorityRevoked *bool

	TopHolderPct    *float64
	Top5HoldersPct  *float64
	Top10HoldersPct *float64

	SellTaxPct *float64

	BuyCount24h  *int
	SellCount24h *int

	PriceChange5m  *float64
	PriceChange1h  *float64
	PriceChange24h *float64

	SmartMoneyCount int
}

// Liquidity and holder thresholds used across the scoring functions.
const (
	liquidityFloor    = 20000.0
	liquidityBonusBar = 100000.0
	minVolLiqRatio    = 0.05
	youngTokenHours   = 0.5
)

// SafetyScore computes the 0-10 safety score: start at 10, subtract for
// risk factors, add the high-liquidity and smart-money bonuses, subtract
// the honeypot penalty, clamp to [0, 10].
func SafetyScore(in Input) float64 {
	score := 10.0

	if in.LiquidityUSD < liquidityFloor {
		score -= 3.0
	}
	if !boolVal(in.MintAuthorityRevoked) {
		score -= 3.0
	}
	if !boolVal(in.FreezeAuthorityRevoked) {
		score -= 3.0
	}

	topHolder := floatVal(in.TopHolderPct)
	if topHolder > 20 {
		score -= 2.0
	} else if topHolder > 15 {
		score -= 1.0
	}

	if in.TokenAgeHours < youngTokenHours {
		score -= 1.0
	}
	if in.LiquidityUSD > 0 && in.Volume24h/in.LiquidityUSD < minVolLiqRatio {
		score -= 1.0
	}

	if in.LiquidityUSD > liquidityBonusBar {
		score += 0.5
	}

	score += SmartMoneyBonus(in.SmartMoneyCount)

	switch HoneypotRisk(in) {
	case RiskMedium:
		score -= 1.5
	case RiskHigh:
		score -= 3.0
	}

	return clamp(score, 0, 10)
}

// SmartMoneyBonus rewards tracked profitable wallets among the top
// holders: +1 for one or two, +2 for three or more.
func SmartMoneyBonus(count int) float64 {
	switch {
	case count >= 3:
		return 2.0
	case count >= 1:
		return 1.0
	default:
		return 0
	}
}

// RedFlags lists human-readable warnings for the presentation layer. The
// thresholds mirror SafetyScore's deductions.
func RedFlags(in Input) []string {
	var flags []string

	if in.LiquidityUSD < liquidityFloor {
		flags = append(flags, "critical: low liquidity")
	}
	if !boolVal(in.MintAuthorityRevoked) {
		flags = append(flags, "critical: mint authority not revoked")
	}
	if !boolVal(in.FreezeAuthorityRevoked) {
		flags = append(flags, "critical: freeze authority active")
	}
	if floatVal(in.TopHolderPct) > 20 {
		flags = append(flags, "high: top holder concentration")
	}
	if in.TokenAgeHours < youngTokenHours {
		flags = append(flags, "medium: very new token")
	}
	if in.LiquidityUSD > 0 && in.Volume24h/in.LiquidityUSD < minVolLiqRatio {
		flags = append(flags, "medium: low trading activity")
	}

	return flags
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolVal(p *bool) bool {
	return p != nil && *p
}

func floatVal(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func intVal(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

package scoring

// Risk is the honeypot risk tier.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// HoneypotRisk scores honeypot indicators on a weighted point sum:
// non-revoked authorities, thin liquidity, sell tax, extreme holder
// concentration, and extreme youth. 3 points maps to MEDIUM, 5 to HIGH.
func HoneypotRisk(in Input) Risk {
	points := 0

	if !boolVal(in.MintAuthorityRevoked) {
		points += 2
	}
	if !boolVal(in.FreezeAuthorityRevoked) {
		points += 2
	}
	if in.LiquidityUSD < 5000 {
		points += 2
	}

	sellTax := floatVal(in.SellTaxPct)
	if sellTax > 10 {
		points += 3
	} else if sellTax > 5 {
		points++
	}

	if floatVal(in.TopHolderPct) > 30 {
		points += 2
	}
	if in.TokenAgeHours < 1 {
		points++
	}

	switch {
	case points >= 5:
		return RiskHigh
	case points >= 3:
		return RiskMedium
	default:
		return RiskLow
	}
}

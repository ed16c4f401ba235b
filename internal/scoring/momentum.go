package scoring

// MomentumScore rates short-term trading pressure on a 0-10 scale from
// the buy/sell ratio, a recency-weighted price change, and the
// volume-to-liquidity ratio. It starts from a neutral 5.
func MomentumScore(in Input) float64 {
	score := 5.0

	buys := intVal(in.BuyCount24h)
	sells := intVal(in.SellCount24h)
	if sells > 0 {
		ratio := float64(buys) / float64(sells)
		switch {
		case ratio > 1.5:
			score += 2.0
		case ratio > 1.1:
			score += 1.0
		case ratio < 0.67:
			score -= 2.0
		case ratio < 0.9:
			score -= 1.0
		}
	}

	weighted := weightedChange(in)
	switch {
	case weighted > 10:
		score += 2.0
	case weighted > 3:
		score += 1.0
	case weighted < -10:
		score -= 2.0
	case weighted < -3:
		score -= 1.0
	}

	if in.LiquidityUSD > 0 {
		volLiq := in.Volume24h / in.LiquidityUSD
		if volLiq > 2 {
			score += 1.0
		} else if volLiq < minVolLiqRatio {
			score -= 1.0
		}
	}

	return clamp(score, 0, 10)
}

// weightedChange blends the 5m/1h/24h price changes, weighting the most
// recent window heaviest. Missing windows count as zero.
func weightedChange(in Input) float64 {
	return 0.5*floatVal(in.PriceChange5m) +
		0.3*floatVal(in.PriceChange1h) +
		0.2*floatVal(in.PriceChange24h)
}

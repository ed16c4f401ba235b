package stats

import "memetracker/internal/models"

// SourceTier assigns the reliability tier from an aggregate. Gains are in
// percent versus entry, so the S bar of 500 demands an average 6x on
// winning calls.
func SourceTier(agg Aggregate) string {
	switch {
	case agg.AvgMaxGain > 500 && agg.WinRate > 0.6 && agg.RugRate < 0.1:
		return models.TierS
	case agg.AvgMaxGain > 300 && agg.WinRate > 0.5 && agg.RugRate < 0.2:
		return models.TierA
	case agg.AvgMaxGain > 150 && agg.WinRate > 0.4:
		return models.TierB
	default:
		return models.TierC
	}
}

// WalletTier assigns a tracked wallet's tier; wallets are held to a
// higher win-rate bar than channels because a wallet buys with its own
// money.
func WalletTier(winRate, avgGainPct float64) string {
	switch {
	case winRate > 0.7 && avgGainPct > 400:
		return models.TierS
	case winRate > 0.6 && avgGainPct > 250:
		return models.TierA
	case winRate > 0.5 && avgGainPct > 100:
		return models.TierB
	default:
		return models.TierC
	}
}

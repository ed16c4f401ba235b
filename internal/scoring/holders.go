package scoring

// Concentration tiers for holder distribution.
const (
	DistributionHealthy      = "HEALTHY"
	DistributionConcentrated = "CONCENTRATED"
	DistributionRisky        = "RISKY"
	DistributionCritical     = "CRITICAL"
)

// HolderDistribution classifies top-holder concentration and returns the
// tier with its 0-10 distribution score. Unknown percentages score as
// zero concentration, so missing security data reads as healthy rather
// than failing the token outright.
func HolderDistribution(top1, top5, top10 *float64) (string, float64) {
	t1 := floatVal(top1)
	t5 := floatVal(top5)
	t10 := floatVal(top10)

	switch {
	case t1 > 30 || t5 > 60 || t10 > 70:
		return DistributionCritical, 0
	case t1 > 20 || t5 > 50 || t10 > 60:
		return DistributionRisky, 3
	case t1 > 15 || t5 > 40 || t10 > 50:
		return DistributionConcentrated, 6
	default:
		return DistributionHealthy, 10
	}
}

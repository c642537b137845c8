package domain

// Weights of the opportunity score components. They must sum to 1.
const (
	tierWeight        = 0.4
	competitionWeight = 0.3
	growthWeight      = 0.3
)

// NicheOpportunity is one candidate market niche produced by the research
// stage. Instances are immutable once filtered.
type NicheOpportunity struct {
	ExecutionID      string
	Name             string
	Keywords         []string
	Tier             BSRTier
	Competitors      int
	Trend            GrowthTrend
	OpportunityScore float64
	// ColorHint suggests a palette direction for the creative stage
	// (e.g. "high contrast", "earth tones"). Advisory only.
	ColorHint string
}

// CompetitionScore converts a competitor count into a 0-10 score.
// Every 100 competitors costs one point.
func CompetitionScore(competitors int) float64 {
	score := 10 - float64(competitors)/100
	if score < 0 {
		return 0
	}
	return score
}

// OpportunityScore computes the weighted niche score on a 0-10 scale.
// It is a pure function of the market metrics.
func OpportunityScore(tier BSRTier, competitors int, trend GrowthTrend) float64 {
	return tier.Score()*tierWeight +
		CompetitionScore(competitors)*competitionWeight +
		trend.Bonus()*growthWeight
}

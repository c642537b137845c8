package domain

import (
	"math"
	"testing"
)

func TestOpportunityScore(t *testing.T) {
	tests := []struct {
		name        string
		tier        BSRTier
		competitors int
		trend       GrowthTrend
		want        float64
	}{
		{"best case", TierExcellent, 0, TrendGrowing, 10*0.4 + 10*0.3 + 2*0.3},
		{"excellent with competition", TierExcellent, 290, TrendGrowing, 10*0.4 + 7.1*0.3 + 2*0.3},
		{"good stable", TierGood, 500, TrendStable, 7*0.4 + 5*0.3 + 1*0.3},
		{"poor declining saturated", TierPoor, 2000, TrendDeclining, 1 * 0.4},
		{"competition floor at zero", TierMarginal, 10000, TrendStable, 4*0.4 + 0 + 1*0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OpportunityScore(tt.tier, tt.competitors, tt.trend)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("OpportunityScore = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 10 {
				t.Errorf("OpportunityScore = %v, outside [0,10]", got)
			}
		})
	}
}

func TestOpportunityScore_Deterministic(t *testing.T) {
	a := OpportunityScore(TierExcellent, 290, TrendGrowing)
	b := OpportunityScore(TierExcellent, 290, TrendGrowing)
	if a != b {
		t.Errorf("score not deterministic: %v != %v", a, b)
	}
}

func TestCompetitionScore(t *testing.T) {
	if got := CompetitionScore(0); got != 10 {
		t.Errorf("CompetitionScore(0) = %v, want 10", got)
	}
	if got := CompetitionScore(290); math.Abs(got-7.1) > 1e-9 {
		t.Errorf("CompetitionScore(290) = %v, want 7.1", got)
	}
	if got := CompetitionScore(5000); got != 0 {
		t.Errorf("CompetitionScore(5000) = %v, want 0", got)
	}
}

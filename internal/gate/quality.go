package gate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/domain"
)

// Sub-score weights. Mobile visibility and readability are weighted
// highest: 77% of traffic browses listings on a phone.
const (
	weightSimplicity   = 0.15
	weightReadability  = 0.20
	weightPrintQuality = 0.10
	weightVersatility  = 0.10
	weightMobile       = 0.20
	weightProfessional = 0.10
	weightColor        = 0.15
)

// Individual floors alongside the aggregate threshold.
const (
	DefaultMobileFloor      = 8.5
	DefaultReadabilityFloor = 9.0
	DefaultCTRFloor         = 2.0
)

// Bounded leniency for mutation candidates: a small aggregate bonus and
// a slightly lower acceptance floor.
const (
	MutationScoreBonus = 0.3
	MutationFloorDelta = 0.25
)

// QualityGate scores a compliance-cleared candidate through the external
// quality capability and applies the weighted acceptance rule.
type QualityGate struct {
	scorer           capability.QualityScorer
	timeout          time.Duration
	threshold        float64
	mobileFloor      float64
	readabilityFloor float64
	ctrFloor         float64
	log              *zap.SugaredLogger
}

// NewQualityGate creates the quality screening gate
func NewQualityGate(scorer capability.QualityScorer, timeout time.Duration, threshold float64, log *zap.SugaredLogger) *QualityGate {
	return &QualityGate{
		scorer:           scorer,
		timeout:          timeout,
		threshold:        threshold,
		mobileFloor:      DefaultMobileFloor,
		readabilityFloor: DefaultReadabilityFloor,
		ctrFloor:         DefaultCTRFloor,
		log:              log,
	}
}

// Aggregate computes the fixed weighted average over the sub-scores
func Aggregate(r *capability.QualityReport) float64 {
	return r.Simplicity*weightSimplicity +
		r.Readability*weightReadability +
		r.PrintQuality*weightPrintQuality +
		r.Versatility*weightVersatility +
		r.MobileVisibility*weightMobile +
		r.Professionalism*weightProfessional +
		r.ColorEffectiveness*weightColor
}

// Check scores one candidate. Scorer errors fail closed.
func (g *QualityGate) Check(ctx context.Context, c *domain.DesignCandidate) *domain.GateResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	report, err := g.scorer.Score(ctx, c.ImageRef, capability.CandidateMetadata{
		Text:     c.Text,
		Theme:    c.Theme,
		Keywords: c.Keywords,
		Scheme:   c.Scheme,
	})
	if err != nil {
		g.log.Warnw("quality scoring failed", "candidate", c.ID(), "error", err)
		return domain.InfraFailure(err)
	}
	if report == nil {
		return domain.InfraFailure(fmt.Errorf("scorer returned no report"))
	}

	aggregate := Aggregate(report)
	threshold := g.threshold
	if c.IsMutation {
		aggregate += MutationScoreBonus
		threshold -= MutationFloorDelta
	}

	var flags []string
	if aggregate < threshold {
		flags = append(flags, fmt.Sprintf("aggregate %.2f below threshold %.2f", aggregate, threshold))
	}
	if report.MobileVisibility < g.mobileFloor {
		flags = append(flags, fmt.Sprintf("mobile visibility %.1f below floor %.1f", report.MobileVisibility, g.mobileFloor))
	}
	if report.Readability < g.readabilityFloor {
		flags = append(flags, fmt.Sprintf("readability %.1f below floor %.1f", report.Readability, g.readabilityFloor))
	}
	if report.PredictedCTR <= g.ctrFloor {
		flags = append(flags, fmt.Sprintf("predicted CTR %.2f%% at or below floor %.2f%%", report.PredictedCTR, g.ctrFloor))
	}

	if len(flags) > 0 {
		return &domain.GateResult{
			Verdict: domain.VerdictFail,
			Score:   aggregate,
			Cause:   domain.CausePolicy,
			Flags:   flags,
		}
	}

	return &domain.GateResult{Verdict: domain.VerdictPass, Score: aggregate}
}

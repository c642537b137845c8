package gate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/domain"
)

// MutationRiskAllowance is the bounded relaxation of the compliance risk
// ceiling for mutation candidates. One point, never more.
const MutationRiskAllowance = 1.0

// ComplianceGate screens the rendered artifact through the external
// vision/policy analyzer.
type ComplianceGate struct {
	analyzer    capability.ComplianceAnalyzer
	timeout     time.Duration
	riskCeiling float64
	minContrast float64
	log         *zap.SugaredLogger
}

// NewComplianceGate creates the post-generation screening gate
func NewComplianceGate(analyzer capability.ComplianceAnalyzer, timeout time.Duration, riskCeiling, minContrast float64, log *zap.SugaredLogger) *ComplianceGate {
	return &ComplianceGate{analyzer: analyzer, timeout: timeout, riskCeiling: riskCeiling, minContrast: minContrast, log: log}
}

// Check analyzes the candidate's generated image. PASS requires the
// analyzer verdict to be PASS, risk under the ceiling, a readable
// thumbnail, and contrast at or above the minimum. Analyzer errors fail
// closed.
func (g *ComplianceGate) Check(ctx context.Context, c *domain.DesignCandidate) *domain.GateResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	report, err := g.analyzer.Analyze(ctx, c.ImageRef, capability.CandidateMetadata{
		Text:     c.Text,
		Theme:    c.Theme,
		Keywords: c.Keywords,
		Scheme:   c.Scheme,
	})
	if err != nil {
		g.log.Warnw("compliance analysis failed", "candidate", c.ID(), "error", err)
		return domain.InfraFailure(err)
	}
	if report == nil {
		return domain.InfraFailure(fmt.Errorf("analyzer returned no report"))
	}

	ceiling := g.riskCeiling
	if c.IsMutation {
		ceiling += MutationRiskAllowance
	}

	var flags []string
	if report.Verdict != domain.VerdictPass {
		flags = append(flags, fmt.Sprintf("analyzer verdict %s", report.Verdict))
	}
	if report.RiskScore >= ceiling {
		flags = append(flags, fmt.Sprintf("risk score %.1f at or above ceiling %.1f", report.RiskScore, ceiling))
	}
	if !report.ThumbnailReadable {
		flags = append(flags, "thumbnail not readable at mobile size")
	}
	if report.ContrastRatio < g.minContrast {
		flags = append(flags, fmt.Sprintf("contrast ratio %.2f below %.2f", report.ContrastRatio, g.minContrast))
	}
	flags = append(flags, report.PolicyFlags...)
	if len(report.TrademarkHits) > 0 {
		flags = append(flags, "trademark hits in artwork")
		flags = append(flags, report.TrademarkHits...)
	}

	if len(flags) > 0 {
		return &domain.GateResult{
			Verdict:      domain.VerdictFail,
			Score:        report.RiskScore,
			Cause:        domain.CausePolicy,
			Flags:        flags,
			SuggestedFix: report.SuggestedFix,
		}
	}

	return &domain.GateResult{Verdict: domain.VerdictPass, Score: report.RiskScore}
}

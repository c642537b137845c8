// Package research turns external market intelligence into a bounded,
// filtered list of niche opportunities.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/memory"
)

// Stage runs niche research for one pipeline execution
type Stage struct {
	provider  capability.ResearchProvider
	store     *memory.Store
	log       *zap.SugaredLogger
	timeout   time.Duration
	maxNiches int
}

// New creates a research stage
func New(provider capability.ResearchProvider, store *memory.Store, log *zap.SugaredLogger, timeout time.Duration, maxNiches int) *Stage {
	return &Stage{provider: provider, store: store, log: log, timeout: timeout, maxNiches: maxNiches}
}

// Run queries the research provider and applies the filter policy,
// returning the retained niches and the raw result count. The raw
// provider output is appended to memory before filtering so future runs
// can learn from what the market looked like.
func (s *Stage) Run(ctx context.Context, rc *domain.RunContext) ([]domain.NicheOpportunity, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := capability.ResearchQuery{
		MaxResults:    s.maxNiches,
		AvoidKeywords: keywordSlice(rc.NegativeKeywords),
		Patterns:      rc.LearnedPatterns,
	}

	raw, err := s.provider.Research(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("research lookup: %w", err)
	}

	if payload, err := json.Marshal(raw); err == nil {
		rec := memory.Record{
			ExecutionID: rc.ExecutionID,
			Kind:        domain.AgentResearch,
			Success:     true,
			Payload:     string(payload),
		}
		if err := s.store.AppendRecord(rec); err != nil {
			// Memory writes degrade, they never abort the run.
			s.log.Warnw("failed to append research record", "error", err)
		}
	}

	var retained []domain.NicheOpportunity
	for _, m := range raw {
		niche, ok := s.evaluate(rc, m)
		if !ok {
			continue
		}
		retained = append(retained, niche)
	}

	s.log.Infow("research complete",
		"execution", rc.ExecutionID,
		"raw", len(raw),
		"retained", len(retained))
	return retained, len(raw), nil
}

// evaluate applies the filter policy to one raw niche. A niche is kept
// only if its tier is accepted, competition is under the saturation
// limit, the opportunity score meets the floor, and no negative keyword
// appears in its name or keyword list.
func (s *Stage) evaluate(rc *domain.RunContext, m capability.MarketMetrics) (domain.NicheOpportunity, bool) {
	if !rc.Targets.TierAccepted(m.Tier) {
		return domain.NicheOpportunity{}, false
	}
	if m.Competitors >= rc.Targets.SaturationLimit {
		return domain.NicheOpportunity{}, false
	}

	score := domain.OpportunityScore(m.Tier, m.Competitors, m.Trend)
	if score < rc.Targets.ScoreFloor {
		return domain.NicheOpportunity{}, false
	}

	if hit := matchNegative(rc.NegativeKeywords, m.Name, m.Keywords); hit != "" {
		s.log.Debugw("niche blocked by negative keyword", "niche", m.Name, "keyword", hit)
		return domain.NicheOpportunity{}, false
	}

	return domain.NicheOpportunity{
		ExecutionID:      rc.ExecutionID,
		Name:             m.Name,
		Keywords:         m.Keywords,
		Tier:             m.Tier,
		Competitors:      m.Competitors,
		Trend:            m.Trend,
		OpportunityScore: score,
		ColorHint:        m.ColorHint,
	}, true
}

// matchNegative returns the first negative keyword found as a
// case-insensitive substring of the niche name or its keywords.
func matchNegative(negatives map[string]struct{}, name string, keywords []string) string {
	haystacks := make([]string, 0, len(keywords)+1)
	haystacks = append(haystacks, strings.ToLower(name))
	for _, kw := range keywords {
		haystacks = append(haystacks, strings.ToLower(kw))
	}
	for negative := range negatives {
		for _, h := range haystacks {
			if strings.Contains(h, negative) {
				return negative
			}
		}
	}
	return ""
}

func keywordSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	return out
}

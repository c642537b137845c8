package domain

import "time"

// Targets holds the run-wide thresholds loaded from configuration.
type Targets struct {
	// SaturationLimit is the maximum competitor count a niche may have.
	SaturationLimit int
	// ScoreFloor is the minimum opportunity score (0-10) to retain a niche.
	ScoreFloor float64
	// AcceptedTiers is the set of BSR tiers eligible for generation.
	AcceptedTiers []BSRTier
	// QualityThreshold is the aggregate quality score floor.
	QualityThreshold float64
	// MutationInterval: every Nth run generates one mutation candidate.
	MutationInterval int
}

// TierAccepted reports whether the tier is in the accepted set
func (t Targets) TierAccepted(tier BSRTier) bool {
	for _, a := range t.AcceptedTiers {
		if a == tier {
			return true
		}
	}
	return false
}

// StrategyPattern is a prior successful strategy record surfaced to the
// research stage as learning input.
type StrategyPattern struct {
	Niche    string
	Theme    string
	Approved int
}

// RunContext carries everything one pipeline execution needs. It is
// created at run start, owned exclusively by that run, and discarded
// after the summary is persisted. Negative keywords are loaded once and
// immutable for the duration of the run.
type RunContext struct {
	ExecutionID      string
	StartedAt        time.Time
	NegativeKeywords map[string]struct{}
	LearnedPatterns  []StrategyPattern
	Targets          Targets
	// MutationDue is decided once per run from the generation counter.
	MutationDue bool
}

// Blocked reports whether the text matches any negative keyword
// (case-insensitive substring handled by the caller's normalization).
func (rc *RunContext) Blocked(term string) bool {
	_, ok := rc.NegativeKeywords[term]
	return ok
}

// NicheStats aggregates per-niche outcomes for the run summary
type NicheStats struct {
	Generated int
	Approved  int
	Rejected  int
}

// RunSummary is the aggregate record emitted once all batches are
// exhausted. Appended to the memory store; immutable thereafter.
type RunSummary struct {
	ExecutionID string
	StartedAt   time.Time
	FinishedAt  time.Time

	NichesResearched    int
	NichesRetained      int
	CandidatesGenerated int

	Approved          int
	IPFlagged         int
	ComplianceFlagged int
	QualityRejected   int

	// PolicyRejections and InfraFailures split the non-approved counts by
	// cause so operators can tell "the system is broken" from "the market
	// is hard to clear".
	PolicyRejections int
	InfraFailures    int

	MutationsGenerated int
	MutationsApproved  int

	PerNiche map[string]*NicheStats

	// ApprovedPerHour is the run's throughput.
	ApprovedPerHour float64
}

// Finalize computes derived fields once processing ends
func (s *RunSummary) Finalize(now time.Time) {
	s.FinishedAt = now
	hours := now.Sub(s.StartedAt).Hours()
	if hours > 0 {
		s.ApprovedPerHour = float64(s.Approved) / hours
	}
}

// Record tallies one terminal candidate into the summary
func (s *RunSummary) Record(c *DesignCandidate) {
	if s.PerNiche == nil {
		s.PerNiche = make(map[string]*NicheStats)
	}
	ns := s.PerNiche[c.Niche.Name]
	if ns == nil {
		ns = &NicheStats{}
		s.PerNiche[c.Niche.Name] = ns
	}
	ns.Generated++

	switch c.Status {
	case StatusApproved:
		s.Approved++
		ns.Approved++
		if c.IsMutation {
			s.MutationsApproved++
		}
		return
	case StatusIPFlagged:
		s.IPFlagged++
	case StatusComplianceFlagged:
		s.ComplianceFlagged++
	case StatusQualityRejected:
		s.QualityRejected++
	}
	ns.Rejected++

	if cause := terminalCause(c); cause == CauseInfrastructure {
		s.InfraFailures++
	} else {
		s.PolicyRejections++
	}
}

func terminalCause(c *DesignCandidate) FailureCause {
	var r *GateResult
	switch c.Status {
	case StatusIPFlagged:
		r = c.IPResult
	case StatusComplianceFlagged:
		r = c.ComplianceResult
	case StatusQualityRejected:
		r = c.QualityResult
	}
	if r != nil && r.Cause == CauseInfrastructure {
		return CauseInfrastructure
	}
	return CausePolicy
}

package domain

import (
	"testing"
	"time"
)

func TestCandidate_TerminateIsMonotonic(t *testing.T) {
	c := &DesignCandidate{ConceptID: "c1", VariantID: "v1", Status: StatusPending}

	if err := c.Terminate(StatusIPFlagged); err != nil {
		t.Fatalf("first terminate: %v", err)
	}
	if c.Status != StatusIPFlagged {
		t.Errorf("Status = %s, want %s", c.Status, StatusIPFlagged)
	}

	// A flagged candidate must never re-enter a later stage.
	if err := c.Terminate(StatusApproved); err == nil {
		t.Error("second terminate succeeded, want error")
	}
	if c.Status != StatusIPFlagged {
		t.Errorf("Status changed after rejected terminate: %s", c.Status)
	}
}

func TestCandidate_TerminateRejectsPending(t *testing.T) {
	c := &DesignCandidate{Status: StatusPending}
	if err := c.Terminate(StatusPending); err == nil {
		t.Error("terminate into pending succeeded, want error")
	}
}

func TestRunSummary_RecordSplitsCauses(t *testing.T) {
	s := &RunSummary{ExecutionID: "x", StartedAt: time.Now().Add(-2 * time.Hour)}

	niche := NicheOpportunity{Name: "nurse humor"}

	approved := &DesignCandidate{Niche: niche, Status: StatusApproved}
	policy := &DesignCandidate{
		Niche:    niche,
		Status:   StatusQualityRejected,
		QualityResult: &GateResult{Verdict: VerdictFail, Cause: CausePolicy},
	}
	infra := &DesignCandidate{
		Niche:            niche,
		Status:           StatusComplianceFlagged,
		ComplianceResult: InfraFailure(errFake{}),
	}

	for _, c := range []*DesignCandidate{approved, policy, infra} {
		s.Record(c)
	}
	s.Finalize(time.Now())

	if s.Approved != 1 || s.QualityRejected != 1 || s.ComplianceFlagged != 1 {
		t.Errorf("counts = approved %d, quality %d, compliance %d", s.Approved, s.QualityRejected, s.ComplianceFlagged)
	}
	if s.PolicyRejections != 1 {
		t.Errorf("PolicyRejections = %d, want 1", s.PolicyRejections)
	}
	if s.InfraFailures != 1 {
		t.Errorf("InfraFailures = %d, want 1", s.InfraFailures)
	}
	if s.PerNiche["nurse humor"].Generated != 3 {
		t.Errorf("PerNiche.Generated = %d, want 3", s.PerNiche["nurse humor"].Generated)
	}
	if s.ApprovedPerHour < 0.4 || s.ApprovedPerHour > 0.6 {
		t.Errorf("ApprovedPerHour = %v, want ~0.5", s.ApprovedPerHour)
	}
}

func TestRunSummary_MutationCounts(t *testing.T) {
	s := &RunSummary{StartedAt: time.Now()}
	c := &DesignCandidate{Niche: NicheOpportunity{Name: "n"}, Status: StatusApproved, IsMutation: true}
	s.Record(c)
	if s.MutationsApproved != 1 {
		t.Errorf("MutationsApproved = %d, want 1", s.MutationsApproved)
	}
}

type errFake struct{}

func (errFake) Error() string { return "dial tcp: connection refused" }

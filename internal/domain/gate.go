package domain

// GateResult is the outcome of a screening stage. It is produced by the
// gate that ran and attached read-only to the candidate.
type GateResult struct {
	Verdict Verdict
	// Score is a risk score for IP/compliance gates (lower is safer) and
	// an aggregate quality score for the quality gate (higher is better).
	Score float64
	// Flags lists the specific reasons behind a non-PASS verdict:
	// matched brands, policy violations, failed sub-scores.
	Flags []string
	// Queries records the raw lookups issued to external providers,
	// kept for the audit trail on flagged candidates.
	Queries []string
	// Matched names the brand or trademark term that tripped an IP
	// screen, when one did.
	Matched string
	// SuggestedFix is an optional remediation hint from the analyzer.
	SuggestedFix string
	// Cause distinguishes a substantive rejection from an external-call
	// failure. Only meaningful when Verdict != PASS.
	Cause FailureCause
}

// Passed reports whether the candidate may advance past this gate
func (r *GateResult) Passed() bool {
	return r != nil && r.Verdict == VerdictPass
}

// InfraFailure builds the fail-closed result for a broken external call.
// The error text goes into Flags so operators can tell infrastructure
// noise apart from genuine rejections.
func InfraFailure(err error) *GateResult {
	return &GateResult{
		Verdict: VerdictFail,
		Cause:   CauseInfrastructure,
		Flags:   []string{"external call failed: " + err.Error()},
	}
}

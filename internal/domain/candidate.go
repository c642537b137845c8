package domain

import "fmt"

// DesignCandidate is the unit of work flowing through the gated pipeline.
// One candidate is created per concept x variation pair and mutated in
// place as it clears (or fails) each gate.
type DesignCandidate struct {
	ConceptID string
	VariantID string
	Niche     NicheOpportunity
	Theme     string
	// Text is the literal design text that will be printed.
	Text     string
	Keywords []string
	// Prompt is the fully rendered generation prompt. Opaque to the
	// pipeline; only the image generator interprets it.
	Prompt string

	Scheme          ColorScheme
	Products        []ProductType
	ConversionClass ConversionClass
	// IsMutation marks an intentionally unconventional variant. Fixed at
	// creation; gates grant it small, bounded leniency.
	IsMutation bool

	// ImageRef is empty until image generation completes.
	ImageRef string

	Status StageStatus

	// Per-stage results, attached as the candidate moves through the
	// pipeline. A nil result means the stage never ran.
	IPResult         *GateResult
	ComplianceResult *GateResult
	QualityResult    *GateResult
	Listing          *ListingPackage
}

// ID returns the candidate's composite identifier
func (c *DesignCandidate) ID() string {
	return c.ConceptID + "/" + c.VariantID
}

// Terminate moves the candidate into a terminal status. Status is
// monotonic: once a candidate leaves pending it never changes again.
func (c *DesignCandidate) Terminate(status StageStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("cannot terminate candidate %s into %s", c.ID(), status)
	}
	if c.Status != StatusPending {
		return fmt.Errorf("candidate %s already terminal (%s)", c.ID(), c.Status)
	}
	c.Status = status
	return nil
}

// Pending reports whether the candidate is still eligible for the next gate
func (c *DesignCandidate) Pending() bool {
	return c.Status == StatusPending
}

// PricedListing is one product-type price point in a listing package
type PricedListing struct {
	Product ProductType
	Price   float64
}

// ListingPackage is the strategy stage's output for an approved candidate:
// everything the upload step needs in one record.
type ListingPackage struct {
	BrandName   string
	Title       string
	Bullets     []string
	Description string
	// SearchTerms are the backend keywords, not shown on the listing.
	SearchTerms []string
	Prices      []PricedListing
	ArtifactRef string
}

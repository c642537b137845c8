// Package capability defines the external collaborators the pipeline
// depends on. The pipeline only ever sees these interfaces; concrete
// market-intelligence, image-generation and analysis backends plug in
// behind them.
package capability

import (
	"context"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// MarketMetrics is the raw market intelligence for one candidate niche
type MarketMetrics struct {
	Name        string
	Keywords    []string
	Tier        domain.BSRTier
	Competitors int
	Trend       domain.GrowthTrend
	ColorHint   string
}

// ResearchQuery shapes a research lookup
type ResearchQuery struct {
	MaxResults int
	// AvoidKeywords hints the provider away from known-bad territory.
	// The filter policy still re-checks every result.
	AvoidKeywords []string
	// Patterns are prior successful strategies, passed as learning input.
	Patterns []domain.StrategyPattern
}

// ResearchProvider is an opaque external market-intelligence source
type ResearchProvider interface {
	Research(ctx context.Context, query ResearchQuery) ([]MarketMetrics, error)
}

// TrademarkSearcher is one external trademark-search provider. Any
// provider returning a hit count above zero is treated as a hit.
type TrademarkSearcher interface {
	Search(ctx context.Context, terms []string) (int, error)
}

// ImageGenerator renders a design prompt into an image reference.
// Calls are rate-limited and the most failure-prone external dependency;
// the adapter retries them.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CandidateMetadata is the declared design data shipped alongside an
// image to the analysis capabilities.
type CandidateMetadata struct {
	Text     string
	Theme    string
	Keywords []string
	Scheme   domain.ColorScheme
}

// ComplianceReport is the structured verdict from vision+policy analysis
type ComplianceReport struct {
	Verdict       domain.Verdict
	RiskScore     float64
	TrademarkHits []string
	PolicyFlags   []string
	// Mobile-optimization metrics.
	ThumbnailReadable bool
	ContrastRatio     float64
	SuggestedFix      string
}

// ComplianceAnalyzer is the external vision/policy analysis capability
type ComplianceAnalyzer interface {
	Analyze(ctx context.Context, imageRef string, meta CandidateMetadata) (*ComplianceReport, error)
}

// QualityReport carries named sub-scores (each 0-10) and a predicted
// click-through rate in percent.
type QualityReport struct {
	Simplicity         float64
	Readability        float64
	PrintQuality       float64
	Versatility        float64
	MobileVisibility   float64
	Professionalism    float64
	ColorEffectiveness float64
	PredictedCTR       float64
}

// QualityScorer is the external design-quality scoring capability
type QualityScorer interface {
	Score(ctx context.Context, imageRef string, meta CandidateMetadata) (*QualityReport, error)
}

// ListingCopy is generated listing metadata for an approved design
type ListingCopy struct {
	BrandName   string
	Title       string
	Bullets     []string
	Description string
	SearchTerms []string
}

// ListingWriter is the external text-generation capability for listings
type ListingWriter interface {
	GenerateListing(ctx context.Context, meta CandidateMetadata, metrics MarketMetrics) (*ListingCopy, error)
}

// ArtifactStore uploads the final image to blob storage and returns the
// stored reference.
type ArtifactStore interface {
	Upload(ctx context.Context, imageRef, filename string) (string, error)
}

// Providers bundles every external capability a run needs
type Providers struct {
	Research   ResearchProvider
	Trademarks []TrademarkSearcher
	Images     ImageGenerator
	Compliance ComplianceAnalyzer
	Quality    QualityScorer
	Listings   ListingWriter
	Artifacts  ArtifactStore
}

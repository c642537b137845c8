package domain

// BSRTier triages a niche by Best-Sellers-Rank demand
type BSRTier string

const (
	TierExcellent BSRTier = "excellent"
	TierGood      BSRTier = "good"
	TierMarginal  BSRTier = "marginal"
	TierPoor      BSRTier = "poor"
)

// Score maps a tier to its contribution in the opportunity formula
func (t BSRTier) Score() float64 {
	switch t {
	case TierExcellent:
		return 10
	case TierGood:
		return 7
	case TierMarginal:
		return 4
	default:
		return 1
	}
}

// GrowthTrend describes the direction of a niche's demand
type GrowthTrend string

const (
	TrendGrowing   GrowthTrend = "growing"
	TrendStable    GrowthTrend = "stable"
	TrendDeclining GrowthTrend = "declining"
)

// Bonus maps a trend to its contribution in the opportunity formula
func (g GrowthTrend) Bonus() float64 {
	switch g {
	case TrendGrowing:
		return 2
	case TrendStable:
		return 1
	default:
		return 0
	}
}

// StageStatus represents the lifecycle state of a design candidate
type StageStatus string

const (
	StatusPending           StageStatus = "pending"
	StatusIPFlagged         StageStatus = "ip_flagged"
	StatusComplianceFlagged StageStatus = "compliance_flagged"
	StatusQualityRejected   StageStatus = "quality_rejected"
	StatusApproved          StageStatus = "approved"
)

// Terminal reports whether a candidate in this status is done processing
func (s StageStatus) Terminal() bool {
	return s != StatusPending
}

// Verdict is the outcome of a screening gate
type Verdict string

const (
	VerdictPass   Verdict = "PASS"
	VerdictReview Verdict = "REVIEW"
	VerdictFail   Verdict = "FAIL"
)

// FailureCause distinguishes why a gate did not pass
type FailureCause string

const (
	// CausePolicy is a substantive rejection: the gate evaluated the
	// candidate and turned it down. Never retried.
	CausePolicy FailureCause = "policy"
	// CauseInfrastructure is a timeout, transport error or unparseable
	// response from an external capability. Always fail-closed.
	CauseInfrastructure FailureCause = "infrastructure"
)

// ColorScheme identifies one of the two supported color contracts
type ColorScheme string

const (
	// SchemeDarkBackground is scheme A: dark background, light text. Preferred.
	SchemeDarkBackground ColorScheme = "dark_bg_light_text"
	// SchemeLightBackground is scheme B: light background, dark text.
	SchemeLightBackground ColorScheme = "light_bg_dark_text"
)

// ConversionClass predicts listing performance by design composition
type ConversionClass string

const (
	ConversionTextOnly     ConversionClass = "text_only"
	ConversionTextGraphics ConversionClass = "text_graphics"
)

// ProductType is an apparel target for pricing and packaging
type ProductType string

const (
	ProductStandardTee ProductType = "standard_tee"
	ProductPremiumTee  ProductType = "premium_tee"
	ProductHoodie      ProductType = "pullover_hoodie"
)

// DefaultProducts are the apparel types every approved design is priced for
var DefaultProducts = []ProductType{ProductStandardTee, ProductPremiumTee, ProductHoodie}

// AgentKind tags memory records by the stage that produced them
type AgentKind string

const (
	AgentResearch AgentKind = "research"
	AgentCreative AgentKind = "creative"
	AgentQuality  AgentKind = "quality"
	AgentStrategy AgentKind = "strategy"
)

// StageTag labels where in the pipeline a flag was raised
type StageTag string

const (
	StagePreGeneration  StageTag = "pre-generation"
	StagePostGeneration StageTag = "post-generation"
	StageQualityReview  StageTag = "quality-review"
)

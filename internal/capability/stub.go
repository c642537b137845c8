package capability

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// StubProviders returns an offline, deterministic capability set. Used by
// dry runs and tests; every response is a pure function of its input.
func StubProviders(artifactDir string) Providers {
	return Providers{
		Research:   stubResearch{},
		Trademarks: []TrademarkSearcher{stubTrademark{}},
		Images:     stubImages{},
		Compliance: stubCompliance{},
		Quality:    stubQuality{},
		Listings:   stubListings{},
		Artifacts:  &FSArtifactStore{Dir: artifactDir},
	}
}

type stubResearch struct{}

func (stubResearch) Research(_ context.Context, query ResearchQuery) ([]MarketMetrics, error) {
	all := []MarketMetrics{
		{Name: "nurse humor", Keywords: []string{"nurse", "night shift", "scrubs"}, Tier: domain.TierExcellent, Competitors: 150, Trend: domain.TrendGrowing, ColorHint: "high contrast"},
		{Name: "plant parent", Keywords: []string{"plants", "monstera", "botanical"}, Tier: domain.TierGood, Competitors: 540, Trend: domain.TrendStable, ColorHint: "earth tones"},
		{Name: "retro gaming dad", Keywords: []string{"gamer", "retro", "dad"}, Tier: domain.TierGood, Competitors: 410, Trend: domain.TrendGrowing, ColorHint: "neon"},
		{Name: "generic motivation", Keywords: []string{"hustle", "grind"}, Tier: domain.TierPoor, Competitors: 4200, Trend: domain.TrendDeclining},
	}
	if query.MaxResults > 0 && query.MaxResults < len(all) {
		all = all[:query.MaxResults]
	}
	return all, nil
}

type stubTrademark struct{}

func (stubTrademark) Search(_ context.Context, terms []string) (int, error) {
	// Deterministic: only terms carrying an explicit ™-style token hit.
	hits := 0
	for _, t := range terms {
		if strings.Contains(strings.ToLower(t), "trademarked") {
			hits++
		}
	}
	return hits, nil
}

type stubImages struct{}

func (stubImages) Generate(_ context.Context, prompt string) (string, error) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return fmt.Sprintf("stub://design-%08x.png", h.Sum32()), nil
}

type stubCompliance struct{}

func (stubCompliance) Analyze(_ context.Context, _ string, meta CandidateMetadata) (*ComplianceReport, error) {
	return &ComplianceReport{
		Verdict:           domain.VerdictPass,
		RiskScore:         1,
		ThumbnailReadable: true,
		ContrastRatio:     7.2,
	}, nil
}

type stubQuality struct{}

func (stubQuality) Score(_ context.Context, _ string, meta CandidateMetadata) (*QualityReport, error) {
	return &QualityReport{
		Simplicity:         9,
		Readability:        9.5,
		PrintQuality:       8.5,
		Versatility:        8.5,
		MobileVisibility:   9,
		Professionalism:    8.5,
		ColorEffectiveness: 9,
		PredictedCTR:       2.8,
	}, nil
}

type stubListings struct{}

func (stubListings) GenerateListing(_ context.Context, meta CandidateMetadata, metrics MarketMetrics) (*ListingCopy, error) {
	title := strings.TrimSpace(meta.Text)
	if title == "" {
		title = meta.Theme
	}
	return &ListingCopy{
		BrandName:   fmt.Sprintf("%s Collective", titleCase(metrics.Name)),
		Title:       fmt.Sprintf("%s - %s Shirt", title, titleCase(meta.Theme)),
		Bullets:     []string{"Printed on demand", "Lightweight classic fit"},
		Description: fmt.Sprintf("A %s design for the %s niche.", meta.Theme, metrics.Name),
		SearchTerms: append([]string(nil), meta.Keywords...),
	}, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FSArtifactStore stores artifacts on the local filesystem. Stands in for
// the blob store in dry runs and tests.
type FSArtifactStore struct {
	Dir string
}

// Upload writes a marker file for the artifact and returns its path
func (f *FSArtifactStore) Upload(_ context.Context, imageRef, filename string) (string, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.Dir, filename)
	if err := os.WriteFile(path, []byte(imageRef+"\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

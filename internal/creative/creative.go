// Package creative expands accepted niches into concrete design
// candidates: concepts, visual variations, rendered generation prompts.
package creative

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/memory"
)

// MutationDue reports whether the next generation run should include a
// mutation candidate. Cadence is every Nth run: with interval 5 and a
// fresh counter, runs 1-4 are standard and the 5th is mutation-due.
func MutationDue(generatedSoFar, interval int) bool {
	if interval <= 0 {
		return false
	}
	return (generatedSoFar+1)%interval == 0
}

// Palette is a concrete fg/bg color pair under one of the two schemes
type Palette struct {
	Scheme     domain.ColorScheme
	Text       string
	Background string
}

// Variant is one style/layout/font combination from the catalog
type Variant struct {
	Style   string
	Layout  string
	Font    string
	Palette Palette
	// Graphical marks variants that add artwork beyond plain text.
	Graphical bool
}

// The variant catalog honors the color-priority contract: scheme A
// (dark background, light text) palettes come first, scheme B second.
var variantCatalog = []Variant{
	{Style: "bold statement", Layout: "centered stack", Font: "heavy sans", Palette: Palette{domain.SchemeDarkBackground, "#ffffff", "#1a1a1a"}},
	{Style: "vintage badge", Layout: "arched text", Font: "slab serif", Palette: Palette{domain.SchemeDarkBackground, "#f4e8d0", "#2b2b2b"}, Graphical: true},
	{Style: "minimal line art", Layout: "upper third", Font: "light sans", Palette: Palette{domain.SchemeLightBackground, "#222222", "#fafafa"}, Graphical: true},
	{Style: "typewriter quote", Layout: "left aligned", Font: "monospace", Palette: Palette{domain.SchemeLightBackground, "#333333", "#ffffff"}},
	// Deliberately low contrast; the generation-time contract drops it.
	{Style: "soft pastel", Layout: "centered stack", Font: "rounded sans", Palette: Palette{domain.SchemeLightBackground, "#c8c8c8", "#ffffff"}},
}

// mutationStyles are the unconventional directions a mutation candidate
// may take. Picked deterministically per niche.
var mutationStyles = []string{
	"cross-theme mashup with cosmic horror",
	"contrarian anti-slogan",
	"brutalist oversized typography",
}

// Stage generates design candidates from niche opportunities
type Stage struct {
	store       *memory.Store
	log         *zap.SugaredLogger
	concepts    int
	variants    int
	minContrast float64
}

// New creates a creative stage
func New(store *memory.Store, log *zap.SugaredLogger, concepts, variants int, minContrast float64) *Stage {
	return &Stage{store: store, log: log, concepts: concepts, variants: variants, minContrast: minContrast}
}

// Generate expands every niche into concepts and variations and returns
// the flattened candidate list. When the run is mutation-due, exactly
// one candidate (on the first niche) is marked as a mutation.
func (s *Stage) Generate(rc *domain.RunContext, niches []domain.NicheOpportunity) []*domain.DesignCandidate {
	var out []*domain.DesignCandidate
	mutationPending := rc.MutationDue

	for ni, niche := range niches {
		for ci := 0; ci < s.concepts; ci++ {
			theme := conceptTheme(niche, ci)
			conceptID := fmt.Sprintf("%s-c%d", slug(niche.Name), ci+1)

			produced := 0
			for vi := 0; produced < s.variants && vi < len(variantCatalog); vi++ {
				variant := variantCatalog[vi]
				ratio, err := ContrastRatio(variant.Palette.Text, variant.Palette.Background)
				if err != nil || ratio < s.minContrast {
					// Contract: low-contrast palettes die here, never
					// reach the later gates.
					s.log.Debugw("variant rejected at generation",
						"niche", niche.Name, "style", variant.Style, "contrast", ratio)
					continue
				}

				c := s.candidate(niche, conceptID, theme, produced+1, variant)
				if mutationPending && ni == 0 && ci == 0 && produced == 0 {
					mutate(c, niche)
					mutationPending = false
				}
				out = append(out, c)
				produced++
			}
		}
	}

	if payload, err := json.Marshal(map[string]any{
		"niches":     len(niches),
		"candidates": len(out),
		"mutation":   rc.MutationDue,
	}); err == nil {
		rec := memory.Record{
			ExecutionID: rc.ExecutionID,
			Kind:        domain.AgentCreative,
			Success:     true,
			Payload:     string(payload),
		}
		if err := s.store.AppendRecord(rec); err != nil {
			s.log.Warnw("failed to append creative record", "error", err)
		}
	}

	return out
}

func (s *Stage) candidate(niche domain.NicheOpportunity, conceptID, theme string, variantNum int, variant Variant) *domain.DesignCandidate {
	conversion := domain.ConversionTextOnly
	if variant.Graphical {
		conversion = domain.ConversionTextGraphics
	}
	c := &domain.DesignCandidate{
		ConceptID:       conceptID,
		VariantID:       fmt.Sprintf("v%d", variantNum),
		Niche:           niche,
		Theme:           theme,
		Text:            designText(theme),
		Keywords:        append([]string{theme}, niche.Keywords...),
		Scheme:          variant.Palette.Scheme,
		Products:        domain.DefaultProducts,
		ConversionClass: conversion,
		Status:          domain.StatusPending,
	}
	c.Prompt = renderPrompt(c, variant, niche.ColorHint)
	return c
}

// mutate rewrites a candidate into its intentionally unconventional form
func mutate(c *domain.DesignCandidate, niche domain.NicheOpportunity) {
	style := mutationStyles[len(niche.Name)%len(mutationStyles)]
	c.IsMutation = true
	c.Theme = c.Theme + " / " + style
	c.Prompt = c.Prompt + " Unconventional direction: " + style + "."
}

func conceptTheme(niche domain.NicheOpportunity, idx int) string {
	if idx < len(niche.Keywords) {
		return niche.Name + " " + niche.Keywords[idx]
	}
	return niche.Name
}

func designText(theme string) string {
	return titleWords(theme)
}

func renderPrompt(c *domain.DesignCandidate, variant Variant, colorHint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "T-shirt design, %s style, %s layout, %s font.", variant.Style, variant.Layout, variant.Font)
	fmt.Fprintf(&b, " Text: %q.", c.Text)
	fmt.Fprintf(&b, " Colors: %s text on %s background (%s).", variant.Palette.Text, variant.Palette.Background, c.Scheme)
	if colorHint != "" {
		fmt.Fprintf(&b, " Palette direction: %s.", colorHint)
	}
	return b.String()
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Package gate implements the screening stages of the pipeline. Each
// gate evaluates one candidate and returns a GateResult; persistence of
// flags and rejections stays with the caller.
package gate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/domain"
)

// phoneticReplacer catches near-miss spellings before brand matching.
var phoneticReplacer = strings.NewReplacer("ph", "f", "ck", "k")

// IPGate screens candidate text against brand risk and external
// trademark searches before any image is generated.
type IPGate struct {
	brands    *BrandList
	searchers []capability.TrademarkSearcher
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// NewIPGate creates the pre-generation screening gate
func NewIPGate(brands *BrandList, searchers []capability.TrademarkSearcher, timeout time.Duration, log *zap.SugaredLogger) *IPGate {
	return &IPGate{brands: brands, searchers: searchers, timeout: timeout, log: log}
}

// Check screens one candidate. FAIL when the static brand list matches
// or any trademark provider reports hits; provider errors fail closed.
func (g *IPGate) Check(ctx context.Context, c *domain.DesignCandidate) *domain.GateResult {
	terms := NormalizeTerms(c.Text, c.Theme, c.Keywords)

	if brand, term := g.matchBrands(terms); brand != "" {
		return &domain.GateResult{
			Verdict: domain.VerdictFail,
			Score:   10,
			Cause:   domain.CausePolicy,
			Matched: brand,
			Flags:   []string{"brand risk: " + brand + " (matched " + term + ")"},
			Queries: terms,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	for _, searcher := range g.searchers {
		hits, err := searcher.Search(ctx, terms)
		if err != nil {
			g.log.Warnw("trademark search failed", "candidate", c.ID(), "error", err)
			res := domain.InfraFailure(err)
			res.Queries = terms
			return res
		}
		if hits > 0 {
			return &domain.GateResult{
				Verdict: domain.VerdictFail,
				Score:   float64(hits),
				Cause:   domain.CausePolicy,
				Flags:   []string{"trademark search reported hits"},
				Queries: terms,
			}
		}
	}

	return &domain.GateResult{Verdict: domain.VerdictPass, Queries: terms}
}

// matchBrands returns the first brand the term set trips, and the term
// that tripped it.
func (g *IPGate) matchBrands(terms []string) (brand, term string) {
	for _, b := range g.brands.Brands() {
		lb := strings.ToLower(b)
		strippedBrand := stripVowels(lb)
		for _, t := range terms {
			lt := strings.ToLower(t)
			// Exact and substring in both directions.
			if lt == lb || strings.Contains(lt, lb) || strings.Contains(lb, lt) {
				return b, t
			}
			// Vowel-stripped fuzzy equality per word, catching spelling
			// tweaks like "Nikee".
			for _, word := range strings.Fields(lt) {
				if sw := stripVowels(word); sw != "" && sw == strippedBrand {
					return b, t
				}
			}
		}
	}
	return "", ""
}

// NormalizeTerms builds the screened term set for a candidate: the
// original text plus lower/upper case, punctuation-stripped and
// phonetic-substituted forms, deduplicated.
func NormalizeTerms(text, theme string, keywords []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	sources := append([]string{text, theme}, keywords...)
	for _, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		lower := strings.ToLower(src)
		add(src)
		add(lower)
		add(strings.ToUpper(src))
		add(stripPunctuation(lower))
		add(phoneticReplacer.Replace(lower))
	}
	return out
}

func stripPunctuation(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripVowels(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

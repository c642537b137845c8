// Package strategy prices approved designs and packages them into
// upload-ready listings.
package strategy

import (
	"math"

	"github.com/merchpilot/merchpilot/internal/domain"
)

// MutationPremium is the bounded price uplift for mutation designs:
// unconventional work is scarcer on the marketplace.
const MutationPremium = 1.05

// PricingTable holds base prices per product type
type PricingTable struct {
	Base map[domain.ProductType]float64
}

// SellerTierMultiplier derives a multiplier from competition buckets.
// Thin competition supports a premium; saturated niches price down.
func SellerTierMultiplier(competitors int) float64 {
	switch {
	case competitors < 100:
		return 1.15
	case competitors < 500:
		return 1.05
	case competitors < 1000:
		return 1.0
	default:
		return 0.95
	}
}

// BSRMultiplier adjusts price by demand tier
func BSRMultiplier(tier domain.BSRTier) float64 {
	switch tier {
	case domain.TierExcellent:
		return 1.1
	case domain.TierGood:
		return 1.0
	case domain.TierMarginal:
		return 0.95
	default:
		return 0.9
	}
}

// PsychologicalPrice rounds to the nearest .99 price point
func PsychologicalPrice(p float64) float64 {
	return math.Round(p) - 0.01
}

// Price computes the final deterministic price for one product
func (t PricingTable) Price(product domain.ProductType, competitors int, tier domain.BSRTier, mutation bool) float64 {
	p := t.Base[product] * SellerTierMultiplier(competitors) * BSRMultiplier(tier)
	if mutation {
		p *= MutationPremium
	}
	return PsychologicalPrice(p)
}

// PriceAll prices every product the candidate targets
func (t PricingTable) PriceAll(c *domain.DesignCandidate) []domain.PricedListing {
	out := make([]domain.PricedListing, 0, len(c.Products))
	for _, product := range c.Products {
		out = append(out, domain.PricedListing{
			Product: product,
			Price:   t.Price(product, c.Niche.Competitors, c.Niche.Tier, c.IsMutation),
		})
	}
	return out
}

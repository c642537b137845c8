package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/memory"
)

// Stage packages approved candidates: pricing, listing copy, artifact
// upload, one upload-ready record. No gating happens here; everything
// that reaches this stage is already accepted.
type Stage struct {
	pricing   PricingTable
	listings  capability.ListingWriter
	artifacts capability.ArtifactStore
	store     *memory.Store
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// New creates a strategy stage
func New(pricing PricingTable, listings capability.ListingWriter, artifacts capability.ArtifactStore, store *memory.Store, timeout time.Duration, log *zap.SugaredLogger) *Stage {
	return &Stage{pricing: pricing, listings: listings, artifacts: artifacts, store: store, timeout: timeout, log: log}
}

// Package prices the candidate, generates listing metadata, uploads the
// artifact and persists the upload-ready record.
func (s *Stage) Package(ctx context.Context, rc *domain.RunContext, c *domain.DesignCandidate) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prices := s.pricing.PriceAll(c)

	listing, err := s.listings.GenerateListing(ctx, capability.CandidateMetadata{
		Text:     c.Text,
		Theme:    c.Theme,
		Keywords: c.Keywords,
		Scheme:   c.Scheme,
	}, capability.MarketMetrics{
		Name:        c.Niche.Name,
		Keywords:    c.Niche.Keywords,
		Tier:        c.Niche.Tier,
		Competitors: c.Niche.Competitors,
		Trend:       c.Niche.Trend,
	})
	if err != nil {
		return fmt.Errorf("listing generation: %w", err)
	}

	artifactRef, err := s.artifacts.Upload(ctx, c.ImageRef, artifactFilename(c))
	if err != nil {
		return fmt.Errorf("artifact upload: %w", err)
	}

	c.Listing = &domain.ListingPackage{
		BrandName:   listing.BrandName,
		Title:       listing.Title,
		Bullets:     listing.Bullets,
		Description: listing.Description,
		SearchTerms: listing.SearchTerms,
		Prices:      prices,
		ArtifactRef: artifactRef,
	}

	if err := s.store.AppendListing(rc.ExecutionID, c); err != nil {
		return fmt.Errorf("recording listing: %w", err)
	}

	pattern := domain.StrategyPattern{Niche: c.Niche.Name, Theme: c.Theme, Approved: 1}
	if payload, err := json.Marshal(pattern); err == nil {
		rec := memory.Record{
			ExecutionID: rc.ExecutionID,
			Kind:        domain.AgentStrategy,
			Success:     true,
			Payload:     string(payload),
		}
		if err := s.store.AppendRecord(rec); err != nil {
			s.log.Warnw("failed to append strategy record", "error", err)
		}
	}

	return nil
}

func artifactFilename(c *domain.DesignCandidate) string {
	return strings.ReplaceAll(c.ID(), "/", "-") + ".png"
}

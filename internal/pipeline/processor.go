// Package pipeline drives design candidates through the gated stages:
// IP screening, image generation, compliance analysis, quality scoring
// and finally strategy packaging. Candidates move in fixed-size batches
// with a clean stop between batches.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/gate"
	"github.com/merchpilot/merchpilot/internal/memory"
	"github.com/merchpilot/merchpilot/internal/strategy"
)

// Processor advances candidates through the gates in batches. Gates and
// image generation run concurrently within a batch; all persistence and
// summary accounting happen sequentially once the batch settles.
type Processor struct {
	ip         *gate.IPGate
	compliance *gate.ComplianceGate
	quality    *gate.QualityGate
	images     *ImageAdapter
	strategy   *strategy.Stage
	store      *memory.Store
	sink       EventSink
	batchSize  int
	log        *zap.SugaredLogger
}

// NewProcessor creates a batch processor
func NewProcessor(ip *gate.IPGate, compliance *gate.ComplianceGate, quality *gate.QualityGate, images *ImageAdapter, strat *strategy.Stage, store *memory.Store, sink EventSink, batchSize int, log *zap.SugaredLogger) *Processor {
	if sink == nil {
		sink = NoopSink{}
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Processor{
		ip:         ip,
		compliance: compliance,
		quality:    quality,
		images:     images,
		strategy:   strat,
		store:      store,
		sink:       sink,
		batchSize:  batchSize,
		log:        log,
	}
}

// Process consumes the whole candidate queue. Batches run strictly one
// after another until the queue is exhausted or the context ends.
func (p *Processor) Process(ctx context.Context, rc *domain.RunContext, candidates []*domain.DesignCandidate, summary *domain.RunSummary) error {
	for batch := 1; len(candidates) > 0; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := p.batchSize
		if n > len(candidates) {
			n = len(candidates)
		}
		if err := p.Advance(ctx, rc, candidates[:n], batch, summary); err != nil {
			return err
		}
		candidates = candidates[n:]
	}
	return nil
}

// Advance runs exactly one batch to completion. Every candidate in the
// batch reaches a terminal status before Advance returns.
func (p *Processor) Advance(ctx context.Context, rc *domain.RunContext, batch []*domain.DesignCandidate, batchNum int, summary *domain.RunSummary) error {
	p.sink.Emit(Event{
		Type:        EventBatchStarted,
		ExecutionID: rc.ExecutionID,
		Batch:       batchNum,
		Detail:      plural(len(batch), "candidate"),
		Timestamp:   time.Now().UTC(),
	})

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range batch {
		g.Go(func() error {
			p.screen(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Sequential settle phase: one writer touches the store and summary.
	for _, c := range batch {
		p.settle(ctx, rc, c, summary)
		p.sink.Emit(Event{
			Type:        EventCandidateDone,
			ExecutionID: rc.ExecutionID,
			CandidateID: c.ID(),
			Status:      string(c.Status),
			Batch:       batchNum,
			Timestamp:   time.Now().UTC(),
		})
	}

	p.sink.Emit(Event{
		Type:        EventBatchFinished,
		ExecutionID: rc.ExecutionID,
		Batch:       batchNum,
		Timestamp:   time.Now().UTC(),
	})
	return nil
}

// screen takes one candidate from pending to a terminal status. Gates
// run in fixed order and the first failure terminates the candidate;
// no later gate ever runs after an earlier one rejected.
func (p *Processor) screen(ctx context.Context, c *domain.DesignCandidate) {
	res := p.ip.Check(ctx, c)
	c.IPResult = res
	if !res.Passed() {
		p.finish(c, domain.StatusIPFlagged)
		return
	}

	ref, err := p.images.Generate(ctx, c.Prompt)
	if err != nil {
		// No artwork means nothing downstream can run. The candidate
		// lands in the post-generation bucket with an infrastructure
		// cause so the summary does not blame the design.
		p.log.Warnw("image generation failed", "candidate", c.ID(), "error", err)
		c.ComplianceResult = domain.InfraFailure(err)
		p.finish(c, domain.StatusComplianceFlagged)
		return
	}
	c.ImageRef = ref

	res = p.compliance.Check(ctx, c)
	c.ComplianceResult = res
	if !res.Passed() {
		p.finish(c, domain.StatusComplianceFlagged)
		return
	}

	res = p.quality.Check(ctx, c)
	c.QualityResult = res
	if !res.Passed() {
		p.finish(c, domain.StatusQualityRejected)
		return
	}

	p.finish(c, domain.StatusApproved)
}

// settle persists the candidate's outcome and tallies it. Memory writes
// degrade with a warning; they never fail the batch.
func (p *Processor) settle(ctx context.Context, rc *domain.RunContext, c *domain.DesignCandidate, summary *domain.RunSummary) {
	switch c.Status {
	case domain.StatusIPFlagged:
		matched, queries := "", []string(nil)
		if c.IPResult != nil {
			matched, queries = c.IPResult.Matched, c.IPResult.Queries
		}
		if err := p.store.AppendIPFlag(rc.ExecutionID, c, matched, queries); err != nil {
			p.log.Warnw("failed to record ip flag", "candidate", c.ID(), "error", err)
		}
	case domain.StatusComplianceFlagged:
		if err := p.store.AppendRejection(rc.ExecutionID, c, domain.StagePostGeneration, c.ComplianceResult); err != nil {
			p.log.Warnw("failed to record rejection", "candidate", c.ID(), "error", err)
		}
	case domain.StatusQualityRejected:
		if err := p.store.AppendRejection(rc.ExecutionID, c, domain.StageQualityReview, c.QualityResult); err != nil {
			p.log.Warnw("failed to record rejection", "candidate", c.ID(), "error", err)
		}
	case domain.StatusApproved:
		if err := p.strategy.Package(ctx, rc, c); err != nil {
			p.log.Warnw("packaging failed, design stays approved", "candidate", c.ID(), "error", err)
		}
	}
	summary.Record(c)
}

func (p *Processor) finish(c *domain.DesignCandidate, status domain.StageStatus) {
	if err := c.Terminate(status); err != nil {
		p.log.Errorw("invalid status transition", "candidate", c.ID(), "error", err)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/creative"
	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/memory"
	"github.com/merchpilot/merchpilot/internal/research"
)

// Runner executes one full pipeline run: load memory, research,
// generate, process batches, persist the summary. Each run owns a fresh
// RunContext and never shares state with another run.
type Runner struct {
	store     *memory.Store
	research  *research.Stage
	creative  *creative.Stage
	processor *Processor
	targets   domain.Targets
	sink      EventSink
	log       *zap.SugaredLogger

	// DryRun stops after candidate generation: no image calls, no gates,
	// no store writes beyond the stage memory records.
	DryRun bool
}

// NewRunner wires a run executor
func NewRunner(store *memory.Store, res *research.Stage, cre *creative.Stage, proc *Processor, targets domain.Targets, sink EventSink, log *zap.SugaredLogger) *Runner {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Runner{
		store:     store,
		research:  res,
		creative:  cre,
		processor: proc,
		targets:   targets,
		sink:      sink,
		log:       log,
	}
}

// Execute performs one pipeline run and returns its summary. The
// summary is persisted before returning; a failed run returns whatever
// summary exists alongside the error.
func (r *Runner) Execute(ctx context.Context) (*domain.RunSummary, error) {
	now := time.Now().UTC()
	rc := &domain.RunContext{
		ExecutionID: uuid.NewString(),
		StartedAt:   now,
		Targets:     r.targets,
	}
	r.loadMemory(rc, now)

	log := r.log.With("execution", rc.ExecutionID)
	log.Infow("run started",
		"mutation_due", rc.MutationDue,
		"negative_keywords", len(rc.NegativeKeywords),
		"learned_patterns", len(rc.LearnedPatterns))
	r.sink.Emit(Event{Type: EventRunStarted, ExecutionID: rc.ExecutionID, Timestamp: now})

	summary := &domain.RunSummary{ExecutionID: rc.ExecutionID, StartedAt: now}

	niches, raw, err := r.research.Run(ctx, rc)
	if err != nil {
		r.fail(rc, fmt.Sprintf("research: %v", err))
		return nil, fmt.Errorf("research stage: %w", err)
	}
	summary.NichesResearched = raw
	summary.NichesRetained = len(niches)

	candidates := r.creative.Generate(rc, niches)
	summary.CandidatesGenerated = len(candidates)
	for _, c := range candidates {
		if c.IsMutation {
			summary.MutationsGenerated++
		}
	}

	if len(candidates) > 0 && !r.DryRun {
		if err := r.store.IncrementGenerationCount(now); err != nil {
			log.Warnw("failed to bump generation counter", "error", err)
		}
	}

	if r.DryRun {
		log.Infow("dry run, stopping before generation",
			"niches", len(niches), "candidates", len(candidates))
		summary.Finalize(time.Now().UTC())
		return summary, nil
	}

	if err := r.processor.Process(ctx, rc, candidates, summary); err != nil {
		r.fail(rc, fmt.Sprintf("processing: %v", err))
		summary.Finalize(time.Now().UTC())
		return summary, fmt.Errorf("processing batches: %w", err)
	}

	summary.Finalize(time.Now().UTC())
	if err := r.store.AppendSummary(summary); err != nil {
		return summary, fmt.Errorf("persisting summary: %w", err)
	}

	log.Infow("run completed",
		"approved", summary.Approved,
		"ip_flagged", summary.IPFlagged,
		"compliance_flagged", summary.ComplianceFlagged,
		"quality_rejected", summary.QualityRejected,
		"infra_failures", summary.InfraFailures,
		"approved_per_hour", summary.ApprovedPerHour)
	r.sink.Emit(Event{
		Type:        EventRunCompleted,
		ExecutionID: rc.ExecutionID,
		Detail:      fmt.Sprintf("%d approved of %d generated", summary.Approved, summary.CandidatesGenerated),
		Timestamp:   summary.FinishedAt,
	})
	return summary, nil
}

// loadMemory populates the run context from the store. Every load
// degrades on failure: a run with empty memory beats no run at all.
func (r *Runner) loadMemory(rc *domain.RunContext, now time.Time) {
	negatives, err := r.store.DeriveNegativeKeywords()
	if err != nil {
		r.log.Warnw("failed to derive negative keywords, running without", "error", err)
		negatives = make(map[string]struct{})
	}
	rc.NegativeKeywords = negatives

	patterns, err := r.store.LearnedPatterns(20)
	if err != nil {
		r.log.Warnw("failed to load learned patterns, running without", "error", err)
	}
	rc.LearnedPatterns = patterns

	count, err := r.store.GenerationCountToday(now)
	if err != nil {
		r.log.Warnw("failed to read generation counter, mutation off", "error", err)
		return
	}
	rc.MutationDue = creative.MutationDue(count, rc.Targets.MutationInterval)
}

func (r *Runner) fail(rc *domain.RunContext, detail string) {
	r.sink.Emit(Event{
		Type:        EventRunFailed,
		ExecutionID: rc.ExecutionID,
		Detail:      detail,
		Timestamp:   time.Now().UTC(),
	})
}

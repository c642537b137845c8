package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/merchpilot/merchpilot/internal/capability"
	"github.com/merchpilot/merchpilot/internal/retry"
)

// ImageAdapter wraps the image generator with bounded retries and a
// per-attempt timeout. Generation is the rate-limited, failure-prone
// call of the pipeline; everything else gets one shot.
type ImageAdapter struct {
	gen     capability.ImageGenerator
	cfg     retry.Config
	timeout time.Duration
}

// NewImageAdapter creates the retrying image-generation adapter
func NewImageAdapter(gen capability.ImageGenerator, maxAttempts int, baseDelay, attemptTimeout time.Duration, log *zap.SugaredLogger) *ImageAdapter {
	cfg := retry.DefaultConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		cfg.BaseDelay = baseDelay
	}
	cfg.OnRetry = func(attempt int, delay time.Duration) {
		log.Warnw("retrying image generation", "attempt", attempt, "delay", delay)
	}
	return &ImageAdapter{gen: gen, cfg: cfg, timeout: attemptTimeout}
}

// Generate renders the prompt, retrying transient failures. Each attempt
// gets its own timeout so a hung provider cannot eat the whole budget.
func (a *ImageAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	return retry.Do(ctx, a.cfg, func(ctx context.Context) (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.gen.Generate(attemptCtx, prompt)
	})
}

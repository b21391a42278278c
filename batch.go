package linker

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/logging"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/report"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// Run fetches submissions and processes them sequentially, one terminal
// result per submission. Transient per-submission failures are retried with
// exponential backoff before becoming error results; a store fetch failure
// is fatal. Cancellation is honored between submissions, so the results for
// already-processed submissions are returned alongside ctx.Err().
func (l *Linker) Run(ctx context.Context) ([]types.ProcessingResult, error) {
	runID := uuid.NewString()
	log := logging.Default().With().
		Str("run_id", runID).
		Str("profile", l.profile.Name).
		Bool("dry_run", l.config.dryRun).
		Logger()

	submissions, err := l.store.FetchSubmissions(ctx, l.config.limit)
	if err != nil {
		return nil, err
	}
	log.Info().Int("submissions", len(submissions)).Msg("Starting run")

	results := make([]types.ProcessingResult, 0, len(submissions))
	for i, sub := range submissions {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("processed", i).Msg("Run canceled")
			return results, err
		}

		// The loop check above is the only cancellation point: the
		// in-flight submission keeps an uncancelable context so its
		// writes run to completion and the deal value stays consistent.
		res := l.processWithRetry(context.WithoutCancel(ctx), sub)
		results = append(results, res)

		log.Info().
			Int("index", i+1).
			Int("total", len(submissions)).
			Str("submission_id", res.SubmissionID).
			Int("deal_id", res.DealID).
			Str("status", string(res.Status)).
			Float64("value_added", res.ValueAdded).
			Str("error_reason", res.ErrorReason).
			Msg("Processed submission")
	}

	stats := report.Summary(results)
	log.Info().
		Int("processed", stats.Processed).
		Int("succeeded", stats.Succeeded).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Float64("value_added", stats.ValueAdded).
		Msg("Run complete")

	return results, nil
}

// processWithRetry retries the submission on transient failures up to the
// configured attempt budget.
func (l *Linker) processWithRetry(ctx context.Context, sub types.Submission) types.ProcessingResult {
	var lastErr error
	for attempt := 1; attempt <= l.config.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := l.backoff(attempt)
			logging.Debug().
				Str("submission_id", sub.ID).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying submission")

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return errorResult(sub, lastErr)
			}
		}

		res, err := l.process(ctx, sub, l.config.dryRun)
		if err == nil {
			return res
		}
		lastErr = err

		if !errors.IsTransient(err) || ctx.Err() != nil {
			break
		}
	}
	return errorResult(sub, lastErr)
}

// backoff returns the pre-attempt delay: exponential with full jitter,
// capped at the configured maximum.
func (l *Linker) backoff(attempt int) time.Duration {
	exp := float64(l.config.baseDelay) * math.Pow(2, float64(attempt-2))
	if exp > float64(l.config.maxDelay) {
		exp = float64(l.config.maxDelay)
	}
	return time.Duration(rand.Float64() * exp)
}

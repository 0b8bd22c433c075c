// Package rating generates AI ratings for applicants, either one at a time
// in response to applicant-created events or as a bulk backlog sweep.
package rating

import (
	"context"
	"fmt"
	"time"

	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
	"ats-agent-go/pkg/ratelimit"
)

// Store is the persistence surface the worker needs.
type Store interface {
	GetApplicant(ctx context.Context, id string) (*types.Applicant, error)
	ListUnratedApplicants(ctx context.Context) ([]types.Applicant, error)
	Snapshot(ctx context.Context) (types.Snapshot, error)
	SetApplicantRating(ctx context.Context, id string, rating int) error
}

// Assessor produces the analysis whose overall rating is persisted.
type Assessor interface {
	Analyze(ctx context.Context, applicant types.Applicant, snapshot types.Snapshot) (*types.CandidateAnalysis, error)
}

// Result summarizes one bulk sweep.
type Result struct {
	Considered int
	Rated      int
	Skipped    int
	Failed     int
	Elapsed    time.Duration
}

// Worker rates applicants sequentially, pacing endpoint calls through a
// token bucket sized to the model's requests-per-minute quota.
type Worker struct {
	store    Store
	assessor Assessor
	limiter  *ratelimit.TokenBucket
}

func NewWorker(store Store, assessor Assessor, limiter *ratelimit.TokenBucket) *Worker {
	return &Worker{store: store, assessor: assessor, limiter: limiter}
}

// RateApplicant rates one applicant. Already-rated applicants are skipped
// without an endpoint call, so redelivered events and overlapping sweeps are
// harmless. The skipped return is true when no rating was written.
func (w *Worker) RateApplicant(ctx context.Context, id string) (skipped bool, err error) {
	applicant, err := w.store.GetApplicant(ctx, id)
	if err != nil {
		return false, err
	}
	if applicant.Rating != nil {
		logger.Debug().Str("applicant_id", id).Int("rating", *applicant.Rating).Msg("applicant already rated, skipping")
		return true, nil
	}

	snapshot, err := w.store.Snapshot(ctx)
	if err != nil {
		return false, err
	}

	// RetryWithBackoff waits on the bucket before every attempt, so the
	// model quota is honored across retries too.
	var analysis *types.CandidateAnalysis
	err = w.limiter.RetryWithBackoff(ctx, func() error {
		a, aerr := w.assessor.Analyze(ctx, *applicant, snapshot)
		if aerr != nil {
			return aerr
		}
		analysis = a
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate applicant %s: %w", id, err)
	}

	if analysis.OverallRating == 0 {
		// No open requisitions to assess against; leave the applicant
		// unrated so a later sweep picks them up.
		logger.Info().Str("applicant_id", id).Msg("no open requisitions, applicant left unrated")
		return true, nil
	}

	if err := w.store.SetApplicantRating(ctx, id, analysis.OverallRating); err != nil {
		return false, err
	}
	logger.Info().Str("applicant_id", id).Int("rating", analysis.OverallRating).Msg("applicant rated")
	return false, nil
}

// RateBacklog rates every currently unrated applicant, oldest first. One
// applicant's failure is counted and logged, not fatal to the sweep.
func (w *Worker) RateBacklog(ctx context.Context) (Result, error) {
	start := time.Now()
	unrated, err := w.store.ListUnratedApplicants(ctx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Considered: len(unrated)}
	for _, applicant := range unrated {
		if ctx.Err() != nil {
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		}
		skipped, err := w.RateApplicant(ctx, applicant.ID)
		switch {
		case err != nil:
			result.Failed++
			logger.Error().Str("applicant_id", applicant.ID).Err(err).Msg("backlog rating failed")
		case skipped:
			result.Skipped++
		default:
			result.Rated++
		}
	}
	result.Elapsed = time.Since(start)
	logger.Info().
		Int("considered", result.Considered).
		Int("rated", result.Rated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("elapsed", result.Elapsed).
		Msg("rating backlog sweep finished")
	return result, nil
}

// HandleEvent rates the applicant named by an applicant-created event.
func (w *Worker) HandleEvent(ctx context.Context, event types.ApplicantCreatedEvent) error {
	_, err := w.RateApplicant(ctx, event.ApplicantID)
	return err
}

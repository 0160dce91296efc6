package usecases

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/shared/biztime"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// EvaluateSweepUseCase re-runs the enforcer over every candidate service,
// catching limit changes and missed inline evaluations. Safe to run
// concurrently with inline evaluates: every status write is a
// compare-and-set.
type EvaluateSweepUseCase struct {
	serviceRepo service.Repository
	evaluator   *EvaluateServiceUseCase
	logger      logger.Interface
}

func NewEvaluateSweepUseCase(
	serviceRepo service.Repository,
	evaluator *EvaluateServiceUseCase,
	logger logger.Interface,
) *EvaluateSweepUseCase {
	return &EvaluateSweepUseCase{
		serviceRepo: serviceRepo,
		evaluator:   evaluator,
		logger:      logger,
	}
}

// Execute sweeps all evaluation candidates. Per-service failures are
// counted and logged, not fatal to the sweep.
func (uc *EvaluateSweepUseCase) Execute(ctx context.Context) error {
	sids, err := uc.serviceRepo.ListEvaluationSIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list evaluation candidates: %w", err)
	}

	var changed, failed int
	for _, sid := range sids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result, err := uc.evaluator.Execute(ctx, sid)
		if err != nil {
			failed++
			uc.logger.Errorw("sweep evaluation failed", "sid", sid, "error", err)
			continue
		}
		if result.Changed {
			changed++
		}
	}

	uc.logger.Infow("evaluation sweep finished",
		"candidates", len(sids),
		"changed", changed,
		"failed", failed,
	)
	return nil
}

// ResetSweepUseCase runs the daily reset pass over candidate services with
// a bounded worker pool. The candidate list is distinct, so no service is
// handled by two workers in the same run; interruption mid-run is safe
// because resets are idempotent.
type ResetSweepUseCase struct {
	serviceRepo service.Repository
	resetter    *ResetServiceUseCase
	workers     int
	logger      logger.Interface
}

func NewResetSweepUseCase(
	serviceRepo service.Repository,
	resetter *ResetServiceUseCase,
	workers int,
	logger logger.Interface,
) *ResetSweepUseCase {
	if workers <= 0 {
		workers = 1
	}
	return &ResetSweepUseCase{
		serviceRepo: serviceRepo,
		resetter:    resetter,
		workers:     workers,
		logger:      logger,
	}
}

// Execute considers every candidate for today's business date.
func (uc *ResetSweepUseCase) Execute(ctx context.Context) error {
	sids, err := uc.serviceRepo.ListResetSIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reset candidates: %w", err)
	}

	today := biztime.Today()

	var g errgroup.Group
	g.SetLimit(uc.workers)

	results := make(chan bool, len(sids))
	for _, sid := range sids {
		sid := sid
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			didReset, err := uc.resetter.MaybeReset(ctx, sid, today)
			if err != nil {
				// Keep sweeping; one service's billing hiccup must not
				// starve the rest.
				uc.logger.Errorw("scheduled reset failed", "sid", sid, "error", err)
				return nil
			}
			results <- didReset
			return nil
		})
	}

	err = g.Wait()
	close(results)

	var resets int
	for didReset := range results {
		if didReset {
			resets++
		}
	}

	uc.logger.Infow("reset sweep finished",
		"candidates", len(sids),
		"resets", resets,
		"date", today.Format("2006-01-02"),
	)
	return err
}

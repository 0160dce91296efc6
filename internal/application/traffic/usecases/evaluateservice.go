package usecases

import (
	"context"
	"fmt"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/infrastructure/cache"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// EvaluationResult reports one enforcer run.
type EvaluationResult struct {
	ServiceSID string
	OldStatus  service.Status
	NewStatus  service.Status
	Changed    bool
}

// EvaluateServiceUseCase is the bandwidth threshold enforcer. It compares a
// service's counter total against its limit and converges the status:
// over-limit active services get suspended, under-limit bandwidth-suspended
// services get reactivated. Suspensions owned by billing are left alone.
type EvaluateServiceUseCase struct {
	serviceRepo service.Repository
	fieldCache  cache.ServiceFieldCache
	listCache   cache.NodeListCache
	logger      logger.Interface
}

func NewEvaluateServiceUseCase(
	serviceRepo service.Repository,
	fieldCache cache.ServiceFieldCache,
	listCache cache.NodeListCache,
	logger logger.Interface,
) *EvaluateServiceUseCase {
	return &EvaluateServiceUseCase{
		serviceRepo: serviceRepo,
		fieldCache:  fieldCache,
		listCache:   listCache,
		logger:      logger,
	}
}

// Execute evaluates one service. Concurrent calls for the same service
// converge: the status write is a compare-and-set, and a lost race re-reads
// and re-evaluates once against the winner's state.
func (uc *EvaluateServiceUseCase) Execute(ctx context.Context, serviceSID string) (*EvaluationResult, error) {
	svc, err := uc.serviceRepo.GetBySID(ctx, serviceSID)
	if err != nil {
		return nil, fmt.Errorf("failed to get service for evaluation: %w", err)
	}

	result, retry, err := uc.tryApply(ctx, svc)
	if err != nil {
		return nil, err
	}
	if retry {
		svc, err = uc.serviceRepo.GetBySID(ctx, serviceSID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read service after lost race: %w", err)
		}
		result, retry, err = uc.tryApply(ctx, svc)
		if err != nil {
			return nil, err
		}
		if retry {
			// Lost twice: another evaluator already converged the status.
			return &EvaluationResult{
				ServiceSID: serviceSID,
				OldStatus:  svc.Status(),
				NewStatus:  svc.Status(),
				Changed:    false,
			}, nil
		}
	}

	if result.Changed {
		uc.logger.Infow("service status changed by threshold enforcer",
			"sid", serviceSID,
			"old_status", result.OldStatus,
			"new_status", result.NewStatus,
			"total_bytes", svc.TotalBytes(),
			"bandwidth_limit", svc.BandwidthLimit(),
		)
		uc.invalidateCaches(ctx, serviceSID)
	}

	return result, nil
}

// tryApply runs the pure decision and attempts the compare-and-set. retry
// is true when another writer moved the status first.
func (uc *EvaluateServiceUseCase) tryApply(ctx context.Context, svc *service.Service) (*EvaluationResult, bool, error) {
	eval := svc.Evaluate()
	result := &EvaluationResult{
		ServiceSID: svc.SID(),
		OldStatus:  eval.OldStatus,
		NewStatus:  eval.NewStatus,
		Changed:    eval.Changed,
	}

	if !eval.Changed {
		return result, false, nil
	}

	applied, err := uc.serviceRepo.CompareAndSetStatus(ctx,
		svc.ID(), eval.OldStatus, svc.SuspendReason(), eval.NewStatus, eval.NewReason)
	if err != nil {
		uc.logger.Errorw("failed to apply status transition",
			"sid", svc.SID(),
			"old_status", eval.OldStatus,
			"new_status", eval.NewStatus,
			"error", err,
		)
		return nil, false, fmt.Errorf("failed to apply status transition: %w", err)
	}
	if !applied {
		uc.logger.Debugw("status transition lost race, re-evaluating", "sid", svc.SID())
		return nil, true, nil
	}

	return result, false, nil
}

// invalidateCaches drops the cached status field and node lists after a
// transition. The cache is an optimization: failure here is logged and left
// to the TTL, never surfaced to the caller.
func (uc *EvaluateServiceUseCase) invalidateCaches(ctx context.Context, serviceSID string) {
	if err := uc.fieldCache.InvalidateField(ctx, serviceSID, cache.FieldStatus); err != nil {
		uc.logger.Warnw("failed to invalidate status field cache", "sid", serviceSID, "error", err)
	}
	if err := uc.listCache.InvalidateService(ctx, serviceSID); err != nil {
		uc.logger.Warnw("failed to invalidate node list cache", "sid", serviceSID, "error", err)
	}
}

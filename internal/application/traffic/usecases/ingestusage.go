package usecases

import (
	"context"
	"fmt"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/domain/usage"
	"github.com/meterd-io/meterd/internal/shared/biztime"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/goroutine"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// IngestUsageCommand is one usage report from a node agent. Deltas are
// bytes consumed since the previous report, never absolute totals. A report
// with both deltas zero is accepted as a heartbeat and applies nothing.
type IngestUsageCommand struct {
	ServiceSID    string
	NodeID        uint
	UploadDelta   uint64
	DownloadDelta uint64
	ClientIP      string
}

// IngestResult reports the applied ingest. Evaluation is nil when the
// enforcer ran asynchronously.
type IngestResult struct {
	ServiceSID string
	Evaluation *EvaluationResult
}

// IngestUsageUseCase applies usage deltas to a service's counters. The
// increment is a single atomic SQL statement inside one transaction with
// the optional audit row, so concurrent reports are all durably summed and
// never partially applied. Ingest is deliberately not idempotent: the
// transport owns delivery semantics.
type IngestUsageUseCase struct {
	serviceRepo   service.Repository
	usageRepo     usage.Repository
	txManager     TransactionManager
	evaluator     *EvaluateServiceUseCase
	auditUsage    bool
	asyncEvaluate bool
	logger        logger.Interface
}

func NewIngestUsageUseCase(
	serviceRepo service.Repository,
	usageRepo usage.Repository,
	txManager TransactionManager,
	evaluator *EvaluateServiceUseCase,
	auditUsage bool,
	asyncEvaluate bool,
	logger logger.Interface,
) *IngestUsageUseCase {
	return &IngestUsageUseCase{
		serviceRepo:   serviceRepo,
		usageRepo:     usageRepo,
		txManager:     txManager,
		evaluator:     evaluator,
		auditUsage:    auditUsage,
		asyncEvaluate: asyncEvaluate,
		logger:        logger,
	}
}

// Execute validates and applies one usage report, then runs the enforcer
// for the affected service.
func (uc *IngestUsageUseCase) Execute(ctx context.Context, cmd IngestUsageCommand) (*IngestResult, error) {
	if cmd.ServiceSID == "" {
		return nil, apperrors.NewInvalidArgumentError("service sid is required")
	}
	if cmd.NodeID == 0 {
		return nil, apperrors.NewInvalidArgumentError("node id is required")
	}

	svc, err := uc.serviceRepo.GetBySID(ctx, cmd.ServiceSID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve service for ingest: %w", err)
	}

	// A zero-delta report is a heartbeat: the service must exist, but there
	// is nothing to apply, audit, or re-evaluate.
	if cmd.UploadDelta == 0 && cmd.DownloadDelta == 0 {
		return &IngestResult{ServiceSID: cmd.ServiceSID}, nil
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.serviceRepo.IncrementTraffic(txCtx, svc.ID(), cmd.UploadDelta, cmd.DownloadDelta); err != nil {
			return err
		}
		if uc.auditUsage {
			rec, err := usage.NewRecord(svc.ID(), cmd.NodeID, cmd.UploadDelta, cmd.DownloadDelta, cmd.ClientIP, biztime.NowUTC())
			if err != nil {
				return apperrors.NewInvalidArgumentError(err.Error())
			}
			if err := uc.usageRepo.Append(txCtx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to apply usage report",
			"sid", cmd.ServiceSID,
			"node_id", cmd.NodeID,
			"upload_delta", cmd.UploadDelta,
			"download_delta", cmd.DownloadDelta,
			"error", err,
		)
		return nil, fmt.Errorf("failed to apply usage report: %w", err)
	}

	uc.logger.Debugw("usage report applied",
		"sid", cmd.ServiceSID,
		"node_id", cmd.NodeID,
		"upload_delta", cmd.UploadDelta,
		"download_delta", cmd.DownloadDelta,
	)

	result := &IngestResult{ServiceSID: cmd.ServiceSID}

	if uc.asyncEvaluate {
		sid := cmd.ServiceSID
		goroutine.SafeGo(uc.logger, "post-ingest-evaluate", func() {
			if _, err := uc.evaluator.Execute(context.WithoutCancel(ctx), sid); err != nil {
				uc.logger.Errorw("post-ingest evaluation failed", "sid", sid, "error", err)
			}
		})
		return result, nil
	}

	eval, err := uc.evaluator.Execute(ctx, cmd.ServiceSID)
	if err != nil {
		// The counters are already durable; an evaluation failure is the
		// sweep's problem, not the reporter's.
		uc.logger.Errorw("post-ingest evaluation failed", "sid", cmd.ServiceSID, "error", err)
		return result, nil
	}
	result.Evaluation = eval

	return result, nil
}

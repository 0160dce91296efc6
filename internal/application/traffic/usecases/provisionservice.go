package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/infrastructure/cache"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

type CreateServiceCommand struct {
	SID             string
	BandwidthLimit  uint64 // bytes, 0 means unlimited
	NodeGroupID     uint   // 0 means the default group
	MonthlyResetDay int    // 1-28
}

// CreateServiceResult carries the one-time plain token. Only its hash is
// stored.
type CreateServiceResult struct {
	ServiceID uint
	UUID      string
	Token     string
}

// CreateServiceUseCase provisions a new service in pending state.
type CreateServiceUseCase struct {
	serviceRepo service.Repository
	hasher      TokenHasher
	logger      logger.Interface
}

func NewCreateServiceUseCase(
	serviceRepo service.Repository,
	hasher TokenHasher,
	logger logger.Interface,
) *CreateServiceUseCase {
	return &CreateServiceUseCase{
		serviceRepo: serviceRepo,
		hasher:      hasher,
		logger:      logger,
	}
}

func (uc *CreateServiceUseCase) Execute(ctx context.Context, cmd CreateServiceCommand) (*CreateServiceResult, error) {
	if cmd.SID == "" {
		return nil, apperrors.NewInvalidArgumentError("service sid is required")
	}

	serviceUUID := uuid.New().String()
	token := uuid.New().String()

	tokenHash, err := uc.hasher.Hash(token)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash service token", err)
	}

	svc, err := service.NewService(cmd.SID, serviceUUID, tokenHash, cmd.BandwidthLimit, cmd.NodeGroupID, cmd.MonthlyResetDay)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentError(err.Error())
	}

	if err := uc.serviceRepo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	uc.logger.Infow("service provisioned",
		"sid", cmd.SID,
		"service_id", svc.ID(),
		"bandwidth_limit", cmd.BandwidthLimit,
		"node_group_id", cmd.NodeGroupID,
	)

	return &CreateServiceResult{
		ServiceID: svc.ID(),
		UUID:      serviceUUID,
		Token:     token,
	}, nil
}

type UpdateServiceCommand struct {
	SID            string
	BandwidthLimit *uint64
	NodeGroupID    *uint
	ResetOptOut    *bool
}

// UpdateServiceUseCase applies administrative field changes. A raised or
// lifted limit takes status effect at the next evaluation; a group change
// invalidates the cached node lists immediately.
type UpdateServiceUseCase struct {
	serviceRepo service.Repository
	fieldCache  cache.ServiceFieldCache
	listCache   cache.NodeListCache
	logger      logger.Interface
}

func NewUpdateServiceUseCase(
	serviceRepo service.Repository,
	fieldCache cache.ServiceFieldCache,
	listCache cache.NodeListCache,
	logger logger.Interface,
) *UpdateServiceUseCase {
	return &UpdateServiceUseCase{
		serviceRepo: serviceRepo,
		fieldCache:  fieldCache,
		listCache:   listCache,
		logger:      logger,
	}
}

func (uc *UpdateServiceUseCase) Execute(ctx context.Context, cmd UpdateServiceCommand) error {
	svc, err := uc.serviceRepo.GetBySID(ctx, cmd.SID)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}

	groupChanged := false
	if cmd.BandwidthLimit != nil {
		svc.ChangeBandwidthLimit(*cmd.BandwidthLimit)
	}
	if cmd.NodeGroupID != nil && *cmd.NodeGroupID != svc.NodeGroupID() {
		svc.ChangeNodeGroup(*cmd.NodeGroupID)
		groupChanged = true
	}
	if cmd.ResetOptOut != nil {
		svc.SetResetOptOut(*cmd.ResetOptOut)
	}

	if err := uc.serviceRepo.Update(ctx, svc); err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	if groupChanged {
		if err := uc.fieldCache.InvalidateField(ctx, cmd.SID, cache.FieldNodeGroupID); err != nil {
			uc.logger.Warnw("failed to invalidate group field cache", "sid", cmd.SID, "error", err)
		}
		if err := uc.listCache.InvalidateService(ctx, cmd.SID); err != nil {
			uc.logger.Warnw("failed to invalidate node list cache", "sid", cmd.SID, "error", err)
		}
	}

	uc.logger.Infow("service updated", "sid", cmd.SID)
	return nil
}

type ChangeServiceStatusCommand struct {
	SID       string
	NewStatus service.Status
	// Reason applies only when NewStatus is suspended.
	Reason service.SuspendReason
}

// ChangeServiceStatusUseCase handles administrative lifecycle transitions:
// activation, billing suspensions, expiry, bans. The enforcer never touches
// these; it only reverses its own bandwidth suspensions.
type ChangeServiceStatusUseCase struct {
	serviceRepo service.Repository
	fieldCache  cache.ServiceFieldCache
	listCache   cache.NodeListCache
	logger      logger.Interface
}

func NewChangeServiceStatusUseCase(
	serviceRepo service.Repository,
	fieldCache cache.ServiceFieldCache,
	listCache cache.NodeListCache,
	logger logger.Interface,
) *ChangeServiceStatusUseCase {
	return &ChangeServiceStatusUseCase{
		serviceRepo: serviceRepo,
		fieldCache:  fieldCache,
		listCache:   listCache,
		logger:      logger,
	}
}

func (uc *ChangeServiceStatusUseCase) Execute(ctx context.Context, cmd ChangeServiceStatusCommand) error {
	svc, err := uc.serviceRepo.GetBySID(ctx, cmd.SID)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}

	oldStatus := svc.Status()

	switch cmd.NewStatus {
	case service.StatusActive:
		err = svc.Activate()
	case service.StatusSuspended:
		reason := cmd.Reason
		if reason == service.SuspendReasonNone {
			reason = service.SuspendReasonBilling
		}
		err = svc.Suspend(reason)
	case service.StatusExpired:
		err = svc.MarkExpired()
	case service.StatusBanned:
		err = svc.Ban()
	default:
		return apperrors.NewInvalidArgumentError(fmt.Sprintf("unsupported target status: %s", cmd.NewStatus))
	}
	if err != nil {
		return apperrors.NewConflictError(err.Error())
	}

	if err := uc.serviceRepo.Update(ctx, svc); err != nil {
		return fmt.Errorf("failed to update service status: %w", err)
	}

	if err := uc.fieldCache.InvalidateField(ctx, cmd.SID, cache.FieldStatus); err != nil {
		uc.logger.Warnw("failed to invalidate status field cache", "sid", cmd.SID, "error", err)
	}
	if err := uc.listCache.InvalidateService(ctx, cmd.SID); err != nil {
		uc.logger.Warnw("failed to invalidate node list cache", "sid", cmd.SID, "error", err)
	}

	uc.logger.Infow("service status changed",
		"sid", cmd.SID,
		"old_status", oldStatus,
		"new_status", svc.Status(),
		"reason", svc.SuspendReason(),
	)
	return nil
}

// DeleteServiceUseCase removes a service and its cache entries.
type DeleteServiceUseCase struct {
	serviceRepo service.Repository
	fieldCache  cache.ServiceFieldCache
	listCache   cache.NodeListCache
	logger      logger.Interface
}

func NewDeleteServiceUseCase(
	serviceRepo service.Repository,
	fieldCache cache.ServiceFieldCache,
	listCache cache.NodeListCache,
	logger logger.Interface,
) *DeleteServiceUseCase {
	return &DeleteServiceUseCase{
		serviceRepo: serviceRepo,
		fieldCache:  fieldCache,
		listCache:   listCache,
		logger:      logger,
	}
}

func (uc *DeleteServiceUseCase) Execute(ctx context.Context, sid string) error {
	svc, err := uc.serviceRepo.GetBySID(ctx, sid)
	if err != nil {
		return fmt.Errorf("failed to get service: %w", err)
	}

	if err := uc.serviceRepo.Delete(ctx, svc.ID()); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	if err := uc.fieldCache.InvalidateAll(ctx, sid); err != nil {
		uc.logger.Warnw("failed to invalidate field cache", "sid", sid, "error", err)
	}
	if err := uc.listCache.InvalidateService(ctx, sid); err != nil {
		uc.logger.Warnw("failed to invalidate node list cache", "sid", sid, "error", err)
	}

	uc.logger.Infow("service deleted", "sid", sid, "service_id", svc.ID())
	return nil
}

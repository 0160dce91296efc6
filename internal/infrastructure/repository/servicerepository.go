// Package repository provides the gorm-backed implementations of the domain
// persistence ports.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/mappers"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/models"
	"github.com/meterd-io/meterd/internal/shared/db"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// ServiceRepositoryImpl implements service.Repository.
type ServiceRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ServiceMapper
	logger logger.Interface
}

// NewServiceRepository creates a service repository.
func NewServiceRepository(gdb *gorm.DB, log logger.Interface) service.Repository {
	return &ServiceRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewServiceMapper(),
		logger: log,
	}
}

// Create inserts a new service row.
func (r *ServiceRepositoryImpl) Create(ctx context.Context, svc *service.Service) error {
	model := r.mapper.ToModel(svc)

	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateErr(err) {
			return apperrors.NewConflictError("service with this sid or uuid already exists")
		}
		r.logger.Errorw("failed to create service", "sid", svc.SID(), "error", err)
		return apperrors.NewStoreUnavailableError("failed to create service", err)
	}

	if err := svc.SetID(model.ID); err != nil {
		return apperrors.NewInternalError("failed to set service ID", err)
	}

	r.logger.Infow("service created", "id", model.ID, "sid", model.SID)
	return nil
}

// GetByID retrieves a service by internal ID.
func (r *ServiceRepositoryImpl) GetByID(ctx context.Context, id uint) (*service.Service, error) {
	var model models.ServiceModel
	if err := db.FromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("service not found")
		}
		r.logger.Errorw("failed to get service by id", "id", id, "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to get service", err)
	}
	return r.toEntity(&model)
}

// GetBySID retrieves a service by its external identifier.
func (r *ServiceRepositoryImpl) GetBySID(ctx context.Context, sid string) (*service.Service, error) {
	var model models.ServiceModel
	if err := db.FromContext(ctx, r.db).Where("sid = ?", sid).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("service not found")
		}
		r.logger.Errorw("failed to get service by sid", "sid", sid, "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to get service", err)
	}
	return r.toEntity(&model)
}

// Update persists aggregate field changes with optimistic locking. Traffic
// counters are excluded: they move only through IncrementTraffic and
// ResetTraffic.
func (r *ServiceRepositoryImpl) Update(ctx context.Context, svc *service.Service) error {
	model := r.mapper.ToModel(svc)
	previousVersion := model.Version - 1

	result := db.FromContext(ctx, r.db).Model(&models.ServiceModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"token_hash":        model.TokenHash,
			"bandwidth_limit":   model.BandwidthLimit,
			"status":            model.Status,
			"suspend_reason":    model.SuspendReason,
			"node_group_id":     model.NodeGroupID,
			"monthly_reset_day": model.MonthlyResetDay,
			"reset_opt_out":     model.ResetOptOut,
			"updated_at":        model.UpdatedAt,
			"version":           model.Version,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update service", "id", model.ID, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to update service", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConflictError("service has been modified by another transaction or not found")
	}

	return nil
}

// Delete soft deletes a service.
func (r *ServiceRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := db.FromContext(ctx, r.db).Delete(&models.ServiceModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete service", "id", id, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to delete service", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("service not found")
	}
	r.logger.Infow("service deleted", "id", id)
	return nil
}

// IncrementTraffic adds both deltas in a single atomic SQL statement. No
// application-level read-modify-write, so concurrent increments for the same
// service are never lost.
func (r *ServiceRepositoryImpl) IncrementTraffic(ctx context.Context, id uint, uploadDelta, downloadDelta uint64) error {
	result := db.FromContext(ctx, r.db).Model(&models.ServiceModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"upload_bytes":   gorm.Expr("upload_bytes + ?", uploadDelta),
			"download_bytes": gorm.Expr("download_bytes + ?", downloadDelta),
			"updated_at":     time.Now().UTC(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to increment service traffic",
			"id", id,
			"upload_delta", uploadDelta,
			"download_delta", downloadDelta,
			"error", result.Error,
		)
		return apperrors.NewStoreUnavailableError("failed to increment traffic", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("service not found")
	}

	return nil
}

// ResetTraffic zeroes both counters and stamps last_reset_at in one
// statement; the reset is all-or-nothing by construction.
func (r *ServiceRepositoryImpl) ResetTraffic(ctx context.Context, id uint, at time.Time) error {
	result := db.FromContext(ctx, r.db).Model(&models.ServiceModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"upload_bytes":   0,
			"download_bytes": 0,
			"last_reset_at":  at,
			"updated_at":     at,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to reset service traffic", "id", id, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to reset traffic", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("service not found")
	}

	r.logger.Infow("service traffic reset", "id", id, "at", at)
	return nil
}

// CompareAndSetStatus swaps the status only when the row still holds the
// expected old status and reason. A lost race returns (false, nil) so the
// caller can re-read and re-evaluate.
func (r *ServiceRepositoryImpl) CompareAndSetStatus(ctx context.Context, id uint, oldStatus service.Status, oldReason service.SuspendReason, newStatus service.Status, newReason service.SuspendReason) (bool, error) {
	result := db.FromContext(ctx, r.db).Model(&models.ServiceModel{}).
		Where("id = ? AND status = ? AND suspend_reason = ?", id, oldStatus.String(), oldReason.String()).
		Updates(map[string]interface{}{
			"status":         newStatus.String(),
			"suspend_reason": newReason.String(),
			"updated_at":     time.Now().UTC(),
		})

	if result.Error != nil {
		r.logger.Errorw("failed to compare-and-set service status",
			"id", id,
			"old_status", oldStatus,
			"new_status", newStatus,
			"error", result.Error,
		)
		return false, apperrors.NewStoreUnavailableError("failed to update status", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// ListEvaluationSIDs returns the sweep candidates for the threshold
// enforcer: limited active services plus bandwidth-suspended ones (whose
// limit may have been raised or lifted out-of-band).
func (r *ServiceRepositoryImpl) ListEvaluationSIDs(ctx context.Context) ([]string, error) {
	var sids []string
	err := db.FromContext(ctx, r.db).Model(&models.ServiceModel{}).
		Where("(status = ? AND bandwidth_limit > 0) OR (status = ? AND suspend_reason = ?)",
			service.StatusActive.String(), service.StatusSuspended.String(), service.SuspendReasonBandwidth.String()).
		Order("id ASC").
		Pluck("sid", &sids).Error
	if err != nil {
		r.logger.Errorw("failed to list evaluation candidates", "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to list services", err)
	}
	return sids, nil
}

// ListResetSIDs returns the sweep candidates for the reset scheduler. The
// policy applies the opt-out and billing-suspension checks per service.
func (r *ServiceRepositoryImpl) ListResetSIDs(ctx context.Context) ([]string, error) {
	var sids []string
	err := db.FromContext(ctx, r.db).Model(&models.ServiceModel{}).
		Where("status IN ?", []string{service.StatusActive.String(), service.StatusSuspended.String()}).
		Order("id ASC").
		Pluck("sid", &sids).Error
	if err != nil {
		r.logger.Errorw("failed to list reset candidates", "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to list services", err)
	}
	return sids, nil
}

func (r *ServiceRepositoryImpl) toEntity(model *models.ServiceModel) (*service.Service, error) {
	entity, err := r.mapper.ToEntity(model)
	if err != nil {
		r.logger.Errorw("failed to map service model", "id", model.ID, "error", err)
		return nil, apperrors.NewInternalError("failed to map service", err)
	}
	return entity, nil
}

// isDuplicateErr detects unique key violations across MySQL and SQLite.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

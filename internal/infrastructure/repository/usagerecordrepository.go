package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/meterd-io/meterd/internal/domain/usage"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/models"
	"github.com/meterd-io/meterd/internal/shared/db"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// UsageRecordRepositoryImpl implements usage.Repository. Rows are insert
// only; there is no update path.
type UsageRecordRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUsageRecordRepository creates a usage record repository.
func NewUsageRecordRepository(gdb *gorm.DB, log logger.Interface) usage.Repository {
	return &UsageRecordRepositoryImpl{db: gdb, logger: log}
}

// Append inserts one audit row. Joins the active store transaction when one
// is present in ctx, so an ingest's increment and audit row commit together.
func (r *UsageRecordRepositoryImpl) Append(ctx context.Context, rec *usage.Record) error {
	model := &models.UsageRecordModel{
		ServiceID:     rec.ServiceID(),
		NodeID:        rec.NodeID(),
		UploadBytes:   rec.UploadBytes(),
		DownloadBytes: rec.DownloadBytes(),
		ClientIP:      rec.ClientIP(),
		RecordedAt:    rec.RecordedAt(),
	}

	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to append usage record",
			"service_id", rec.ServiceID(),
			"node_id", rec.NodeID(),
			"error", err,
		)
		return apperrors.NewStoreUnavailableError("failed to append usage record", err)
	}
	return nil
}

// ListByService returns records for a service within [from, to).
func (r *UsageRecordRepositoryImpl) ListByService(ctx context.Context, serviceID uint, from, to time.Time) ([]*usage.Record, error) {
	var recordModels []*models.UsageRecordModel
	err := db.FromContext(ctx, r.db).
		Where("service_id = ? AND recorded_at >= ? AND recorded_at < ?", serviceID, from, to).
		Order("recorded_at ASC, id ASC").
		Find(&recordModels).Error
	if err != nil {
		r.logger.Errorw("failed to list usage records", "service_id", serviceID, "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to list usage records", err)
	}

	records := make([]*usage.Record, 0, len(recordModels))
	for _, m := range recordModels {
		rec, err := usage.ReconstructRecord(m.ID, m.ServiceID, m.NodeID, m.UploadBytes, m.DownloadBytes, m.ClientIP, m.RecordedAt)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to map usage record", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DeleteBefore purges records older than cutoff.
func (r *UsageRecordRepositoryImpl) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := db.FromContext(ctx, r.db).
		Where("recorded_at < ?", cutoff).
		Delete(&models.UsageRecordModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to purge usage records", "cutoff", cutoff, "error", result.Error)
		return 0, apperrors.NewStoreUnavailableError("failed to purge usage records", result.Error)
	}
	return result.RowsAffected, nil
}

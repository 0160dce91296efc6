package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/meterd-io/meterd/internal/domain/usage"
	"github.com/meterd-io/meterd/internal/shared/biztime"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// PurgeUsageRecordsUseCase trims the append-only audit trail. Retention
// policy itself is owned by the operator; this only enforces the configured
// horizon.
type PurgeUsageRecordsUseCase struct {
	usageRepo usage.Repository
	retention time.Duration
	logger    logger.Interface
}

func NewPurgeUsageRecordsUseCase(
	usageRepo usage.Repository,
	retention time.Duration,
	logger logger.Interface,
) *PurgeUsageRecordsUseCase {
	return &PurgeUsageRecordsUseCase{
		usageRepo: usageRepo,
		retention: retention,
		logger:    logger,
	}
}

// Execute deletes records older than the retention horizon. A zero or
// negative retention disables purging.
func (uc *PurgeUsageRecordsUseCase) Execute(ctx context.Context) error {
	if uc.retention <= 0 {
		return nil
	}

	cutoff := biztime.NowUTC().Add(-uc.retention)
	purged, err := uc.usageRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge usage records: %w", err)
	}

	if purged > 0 {
		uc.logger.Infow("usage records purged", "count", purged, "cutoff", cutoff)
	}
	return nil
}

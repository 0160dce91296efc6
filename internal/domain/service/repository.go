package service

import (
	"context"
	"time"
)

// Repository is the persistence port for services. The persistent store is
// the single source of truth for counters and status.
type Repository interface {
	Create(ctx context.Context, svc *Service) error
	GetByID(ctx context.Context, id uint) (*Service, error)
	GetBySID(ctx context.Context, sid string) (*Service, error)
	// Update persists aggregate field changes with optimistic locking. It
	// never writes the traffic counters; those move only through
	// IncrementTraffic and ResetTraffic.
	Update(ctx context.Context, svc *Service) error
	Delete(ctx context.Context, id uint) error

	// IncrementTraffic atomically adds the deltas to both counters with a
	// single SQL increment statement. Concurrent calls for the same service
	// are all durably applied.
	IncrementTraffic(ctx context.Context, id uint, uploadDelta, downloadDelta uint64) error

	// ResetTraffic zeroes both counters and stamps last_reset_at in one
	// all-or-nothing transaction.
	ResetTraffic(ctx context.Context, id uint, at time.Time) error

	// CompareAndSetStatus transitions the status only if the row still holds
	// the expected old status and reason. Returns whether the swap applied;
	// a lost race is not an error.
	CompareAndSetStatus(ctx context.Context, id uint, oldStatus Status, oldReason SuspendReason, newStatus Status, newReason SuspendReason) (bool, error)

	// ListEvaluationSIDs returns the SIDs the enforcer sweep re-evaluates:
	// active services with a non-zero limit and bandwidth-suspended ones.
	ListEvaluationSIDs(ctx context.Context) ([]string, error)

	// ListResetSIDs returns the SIDs the reset sweep considers: active and
	// suspended services (the policy applies opt-out and billing checks).
	ListResetSIDs(ctx context.Context) ([]string, error)
}

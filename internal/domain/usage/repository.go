package usage

import (
	"context"
	"time"
)

// Repository is the persistence port for the usage audit trail. Rows are
// never updated.
type Repository interface {
	// Append inserts one record. When called inside a store transaction it
	// joins that transaction.
	Append(ctx context.Context, r *Record) error

	// ListByService returns records for a service within [from, to).
	ListByService(ctx context.Context, serviceID uint, from, to time.Time) ([]*Record, error)

	// DeleteBefore removes records older than cutoff and returns how many
	// were deleted. Used by the optional retention job.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

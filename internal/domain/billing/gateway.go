// Package billing defines the port to the external billing/CRM system. The
// engine treats it as an opaque remote dependency that may be slow or fail;
// failures never corrupt local state.
package billing

import (
	"context"
	"time"
)

// Status is the billing system's view of an account.
type Status string

const (
	StatusActive    Status = "Active"
	StatusSuspended Status = "Suspended"
	StatusCancelled Status = "Cancelled"
	StatusPending   Status = "Pending"
	StatusFraud     Status = "Fraud"
)

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}

// Gateway is the narrow interface the engine consumes.
type Gateway interface {
	// GetNextDueDate returns the service's next billing due date.
	GetNextDueDate(ctx context.Context, serviceSID string) (time.Time, error)

	// GetBillingStatus returns the billing system's account status.
	GetBillingStatus(ctx context.Context, serviceSID string) (Status, error)

	// ChargeForReset asks the billing system to approve a paid manual reset.
	// A nil error means the charge was accepted.
	ChargeForReset(ctx context.Context, serviceSID string, amount float64) error
}

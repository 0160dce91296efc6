package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/meterd-io/meterd/internal/domain/billing"
	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/shared/biztime"
	"github.com/meterd-io/meterd/internal/shared/config"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// ResetServiceUseCase owns the billing-cycle counter resets. A reset zeroes
// both counters and stamps last_reset_at in one all-or-nothing statement,
// so it is idempotent: running it twice only refreshes the stamp.
type ResetServiceUseCase struct {
	serviceRepo    service.Repository
	billingGateway billing.Gateway
	evaluator      *EvaluateServiceUseCase
	policy         config.ResetPolicy
	logger         logger.Interface
}

func NewResetServiceUseCase(
	serviceRepo service.Repository,
	billingGateway billing.Gateway,
	evaluator *EvaluateServiceUseCase,
	policy config.ResetPolicy,
	logger logger.Interface,
) *ResetServiceUseCase {
	return &ResetServiceUseCase{
		serviceRepo:    serviceRepo,
		billingGateway: billingGateway,
		evaluator:      evaluator,
		policy:         policy,
		logger:         logger,
	}
}

// Reset zeroes the service's counters and, when it was suspended for going
// over quota, re-runs the enforcer so the now-under-limit service comes
// back up.
func (uc *ResetServiceUseCase) Reset(ctx context.Context, serviceSID string) error {
	svc, err := uc.serviceRepo.GetBySID(ctx, serviceSID)
	if err != nil {
		return fmt.Errorf("failed to get service for reset: %w", err)
	}

	if err := uc.serviceRepo.ResetTraffic(ctx, svc.ID(), biztime.NowUTC()); err != nil {
		uc.logger.Errorw("failed to reset service traffic", "sid", serviceSID, "error", err)
		return fmt.Errorf("failed to reset service traffic: %w", err)
	}

	uc.logger.Infow("service traffic reset",
		"sid", serviceSID,
		"previous_total", svc.TotalBytes(),
	)

	if svc.SuspendedForBandwidth() {
		if _, err := uc.evaluator.Execute(ctx, serviceSID); err != nil {
			// Counters are already zeroed; the sweep will reactivate.
			uc.logger.Errorw("post-reset evaluation failed", "sid", serviceSID, "error", err)
		}
	}

	return nil
}

// MaybeReset applies the configured policy for the given business day and
// resets the service when it is due. Returns whether a reset happened.
func (uc *ResetServiceUseCase) MaybeReset(ctx context.Context, serviceSID string, today time.Time) (bool, error) {
	svc, err := uc.serviceRepo.GetBySID(ctx, serviceSID)
	if err != nil {
		return false, fmt.Errorf("failed to get service for scheduled reset: %w", err)
	}

	// Suspensions owned by billing mean an unsettled account; the cycle
	// reset waits until billing reactivates it.
	if svc.SuspendedForBilling() {
		uc.logger.Debugw("skipping reset for billing-suspended service", "sid", serviceSID)
		return false, nil
	}

	var due bool
	switch uc.policy {
	case config.ResetPolicyFixedDay:
		due = uc.dueByFixedDay(svc, today)
	default:
		due, err = uc.dueByBillingDay(ctx, svc, today)
		if err != nil {
			return false, err
		}
	}
	if !due {
		return false, nil
	}

	if err := uc.Reset(ctx, serviceSID); err != nil {
		return false, err
	}
	return true, nil
}

// ManualReset resets on demand, bypassing the day and opt-out checks. A
// positive chargeAmount must be accepted by the billing system first; a
// declined charge aborts with no local mutation.
func (uc *ResetServiceUseCase) ManualReset(ctx context.Context, serviceSID string, chargeAmount float64) error {
	if chargeAmount > 0 {
		if err := uc.billingGateway.ChargeForReset(ctx, serviceSID, chargeAmount); err != nil {
			uc.logger.Warnw("manual reset charge failed",
				"sid", serviceSID,
				"amount", chargeAmount,
				"error", err,
			)
			return err
		}
	}
	return uc.Reset(ctx, serviceSID)
}

// dueByBillingDay asks the billing system for the next due date and matches
// its day-of-month against today. Only a day-31 due date carries over to the
// last day of a shorter month, so day 31 resets on Apr 30 and Feb 28/29 but
// day 29 or 30 never fires early.
func (uc *ResetServiceUseCase) dueByBillingDay(ctx context.Context, svc *service.Service, today time.Time) (bool, error) {
	if svc.ResetOptOut() {
		uc.logger.Debugw("skipping reset for opted-out service", "sid", svc.SID())
		return false, nil
	}

	dueDate, err := uc.billingGateway.GetNextDueDate(ctx, svc.SID())
	if err != nil {
		return false, fmt.Errorf("failed to get next due date: %w", err)
	}

	dueDay := dueDate.Day()
	if today.In(biztime.Location()).Day() == dueDay {
		return true, nil
	}
	if dueDay == 31 && biztime.DaysInMonth(today) < 31 && biztime.IsLastDayOfMonth(today) {
		return true, nil
	}
	return false, nil
}

// dueByFixedDay matches today against the service's reset day, guarding
// against a second run in the same calendar month.
func (uc *ResetServiceUseCase) dueByFixedDay(svc *service.Service, today time.Time) bool {
	if today.In(biztime.Location()).Day() != svc.MonthlyResetDay() {
		return false
	}
	if last := svc.LastResetAt(); last != nil && !biztime.BeforeCalendarMonth(*last, today) {
		return false
	}
	return true
}

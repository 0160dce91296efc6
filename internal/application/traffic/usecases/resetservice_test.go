package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/shared/config"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
)

func newResetter(repo *fakeServiceRepo, gw *fakeBillingGateway, policy config.ResetPolicy) *ResetServiceUseCase {
	evaluator := newEvaluator(repo, newFakeFieldCache(), newFakeListCache())
	return NewResetServiceUseCase(repo, gw, evaluator, policy, newNopLogger())
}

func utcDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 4, 0, 0, 0, time.UTC)
}

func TestResetZeroesCountersAndStamps(t *testing.T) {
	repo := newFakeServiceRepo()
	uc := newResetter(repo, &fakeBillingGateway{}, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 700, 300, 0)

	require.NoError(t, uc.Reset(context.Background(), "SVC-1"))

	row := repo.row("SVC-1")
	assert.Zero(t, row.uploadBytes)
	assert.Zero(t, row.downloadBytes)
	require.NotNil(t, row.lastResetAt)
}

func TestResetReactivatesBandwidthSuspension(t *testing.T) {
	repo := newFakeServiceRepo()
	uc := newResetter(repo, &fakeBillingGateway{}, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusSuspended, service.SuspendReasonBandwidth, 2_000_000, 0, 1_000_000)

	require.NoError(t, uc.Reset(context.Background(), "SVC-1"))

	row := repo.row("SVC-1")
	assert.Equal(t, service.StatusActive, row.status, "a zeroed counter must lift the bandwidth suspension")
	assert.Equal(t, service.SuspendReasonNone, row.reason)
}

func TestMaybeResetSkipsBillingSuspension(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{dueDate: utcDate(2025, 6, 15)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusSuspended, service.SuspendReasonBilling, 500, 0, 0)

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 15))
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, uint64(500), repo.row("SVC-1").uploadBytes)
}

func TestMaybeResetBillingDayMatch(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{dueDate: utcDate(2025, 7, 15)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 15))
	require.NoError(t, err)
	assert.True(t, reset, "the due date's day-of-month matches today")
	assert.Zero(t, repo.row("SVC-1").uploadBytes)
}

func TestMaybeResetBillingDayNoMatch(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{dueDate: utcDate(2025, 7, 15)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 14))
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, uint64(500), repo.row("SVC-1").uploadBytes)
}

func TestMaybeResetShortMonthClampsDueDay(t *testing.T) {
	repo := newFakeServiceRepo()
	// Due on the 31st; April only has 30 days.
	gw := &fakeBillingGateway{dueDate: utcDate(2025, 5, 31)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 4, 30))
	require.NoError(t, err)
	assert.True(t, reset, "day 31 must fire on April 30")

	// Not on the 29th though.
	repo.seed("SVC-2", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	reset, err = uc.MaybeReset(context.Background(), "SVC-2", utcDate(2025, 4, 29))
	require.NoError(t, err)
	assert.False(t, reset)
}

func TestMaybeResetOnlyDayThirtyOneCarriesIntoShortMonth(t *testing.T) {
	repo := newFakeServiceRepo()
	// Due on the 30th; February never reaches it, but the carry-over is
	// reserved for day 31 and the reset waits for March 30.
	gw := &fakeBillingGateway{dueDate: utcDate(2025, 3, 30)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 2, 28))
	require.NoError(t, err)
	assert.False(t, reset, "day 30 must not fire on the last day of February")
	assert.Equal(t, uint64(500), repo.row("SVC-1").uploadBytes)

	// Day 31 does fire there.
	repo.seed("SVC-2", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	gw.dueDate = utcDate(2025, 3, 31)
	reset, err = uc.MaybeReset(context.Background(), "SVC-2", utcDate(2025, 2, 28))
	require.NoError(t, err)
	assert.True(t, reset)
}

func TestMaybeResetHonorsOptOut(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{dueDate: utcDate(2025, 7, 15)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	row := repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	row.optOut = true

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 15))
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, uint64(500), repo.row("SVC-1").uploadBytes)
}

func TestMaybeResetBillingGatewayFailure(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{dueErr: apperrors.NewStoreUnavailableError("billing unreachable", nil)}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	_, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 15))
	assert.Error(t, err)
	assert.Equal(t, uint64(500), repo.row("SVC-1").uploadBytes)
}

func TestMaybeResetFixedDay(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{}
	uc := newResetter(repo, gw, config.ResetPolicyFixedDay)

	row := repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	row.resetDay = 15

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 15))
	require.NoError(t, err)
	assert.True(t, reset)
	assert.Zero(t, gw.chargeCalls, "fixed-day resets never consult billing")

	// A second run on the same day must not reset again.
	reset, err = uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 15))
	require.NoError(t, err)
	assert.False(t, reset, "the same-month guard blocks a double run")

	// Next month it fires again.
	stamp := utcDate(2025, 6, 15)
	row.lastResetAt = &stamp
	reset, err = uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 7, 15))
	require.NoError(t, err)
	assert.True(t, reset)
}

func TestMaybeResetFixedDayMismatch(t *testing.T) {
	repo := newFakeServiceRepo()
	uc := newResetter(repo, &fakeBillingGateway{}, config.ResetPolicyFixedDay)

	row := repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	row.resetDay = 15

	reset, err := uc.MaybeReset(context.Background(), "SVC-1", utcDate(2025, 6, 14))
	require.NoError(t, err)
	assert.False(t, reset)
}

func TestManualResetChargesFirst(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	require.NoError(t, uc.ManualReset(context.Background(), "SVC-1", 5.0))
	assert.Equal(t, 1, gw.chargeCalls)
	assert.Equal(t, 5.0, gw.chargeAmount)
	assert.Zero(t, repo.row("SVC-1").uploadBytes)
}

func TestManualResetDeclinedChargeAbortsCleanly(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{chargeErr: apperrors.NewChargeFailedError("charge declined")}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	err := uc.ManualReset(context.Background(), "SVC-1", 5.0)
	assert.True(t, apperrors.IsChargeFailedError(err))

	row := repo.row("SVC-1")
	assert.Equal(t, uint64(500), row.uploadBytes, "a declined charge must leave counters untouched")
	assert.Nil(t, row.lastResetAt)
}

func TestManualResetFreeSkipsBilling(t *testing.T) {
	repo := newFakeServiceRepo()
	gw := &fakeBillingGateway{chargeErr: apperrors.NewChargeFailedError("should not be called")}
	uc := newResetter(repo, gw, config.ResetPolicyBillingDay)

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)

	require.NoError(t, uc.ManualReset(context.Background(), "SVC-1", 0))
	assert.Zero(t, gw.chargeCalls)
	assert.Zero(t, repo.row("SVC-1").uploadBytes)
}

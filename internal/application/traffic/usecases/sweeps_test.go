package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/shared/biztime"
	"github.com/meterd-io/meterd/internal/shared/config"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
)

func TestEvaluateSweepConvergesAllCandidates(t *testing.T) {
	repo := newFakeServiceRepo()
	evaluator := newEvaluator(repo, newFakeFieldCache(), newFakeListCache())
	uc := NewEvaluateSweepUseCase(repo, evaluator, newNopLogger())

	repo.seed("SVC-over", service.StatusActive, service.SuspendReasonNone, 2_000_000, 0, 1_000_000)
	repo.seed("SVC-under", service.StatusActive, service.SuspendReasonNone, 100, 0, 1_000_000)
	// Limit was lifted since the suspension; the sweep must bring it back.
	repo.seed("SVC-lifted", service.StatusSuspended, service.SuspendReasonBandwidth, 2_000_000, 0, 0)

	require.NoError(t, uc.Execute(context.Background()))

	assert.Equal(t, service.StatusSuspended, repo.row("SVC-over").status)
	assert.Equal(t, service.StatusActive, repo.row("SVC-under").status)
	assert.Equal(t, service.StatusActive, repo.row("SVC-lifted").status)
}

func TestEvaluateSweepToleratesPerServiceFailures(t *testing.T) {
	repo := newFakeServiceRepo()
	evaluator := newEvaluator(repo, newFakeFieldCache(), newFakeListCache())
	uc := NewEvaluateSweepUseCase(repo, evaluator, newNopLogger())

	repo.seed("SVC-over", service.StatusActive, service.SuspendReasonNone, 2_000_000, 0, 1_000_000)
	repo.casErr = apperrors.NewStoreUnavailableError("store down", errors.New("timeout"))

	assert.NoError(t, uc.Execute(context.Background()), "per-service failures must not abort the sweep")
	assert.Equal(t, service.StatusActive, repo.row("SVC-over").status)
}

func TestEvaluateSweepStopsOnCanceledContext(t *testing.T) {
	repo := newFakeServiceRepo()
	evaluator := newEvaluator(repo, newFakeFieldCache(), newFakeListCache())
	uc := NewEvaluateSweepUseCase(repo, evaluator, newNopLogger())

	repo.seed("SVC-over", service.StatusActive, service.SuspendReasonNone, 2_000_000, 0, 1_000_000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, uc.Execute(ctx), context.Canceled)
	assert.Equal(t, service.StatusActive, repo.row("SVC-over").status)
}

func TestResetSweepResetsDueServices(t *testing.T) {
	repo := newFakeServiceRepo()
	evaluator := newEvaluator(repo, newFakeFieldCache(), newFakeListCache())
	resetter := NewResetServiceUseCase(repo, &fakeBillingGateway{}, evaluator, config.ResetPolicyFixedDay, newNopLogger())
	uc := NewResetSweepUseCase(repo, resetter, 4, newNopLogger())

	today := biztime.Today().Day()

	due1 := repo.seed("SVC-due-1", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	due1.resetDay = today
	due2 := repo.seed("SVC-due-2", service.StatusSuspended, service.SuspendReasonBandwidth, 2_000_000, 0, 1_000_000)
	due2.resetDay = today
	notDue := repo.seed("SVC-later", service.StatusActive, service.SuspendReasonNone, 500, 0, 0)
	notDue.resetDay = today%28 + 1 // always a different day-of-month

	require.NoError(t, uc.Execute(context.Background()))

	assert.Zero(t, repo.row("SVC-due-1").uploadBytes)
	assert.Zero(t, repo.row("SVC-due-2").uploadBytes)
	assert.Equal(t, service.StatusActive, repo.row("SVC-due-2").status,
		"the reset must lift the bandwidth suspension")
	assert.Equal(t, uint64(500), repo.row("SVC-later").uploadBytes)
}

package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/infrastructure/cache"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
)

// plainHasher marks the value instead of hashing; tests only care that the
// stored value is not the token itself.
type plainHasher struct{}

func (plainHasher) Hash(token string) (string, error) { return "hashed:" + token, nil }
func (plainHasher) Verify(token, hash string) error {
	if "hashed:"+token != hash {
		return apperrors.NewInvalidArgumentError("invalid token")
	}
	return nil
}

func TestCreateServiceIssuesOneTimeToken(t *testing.T) {
	repo := newFakeServiceRepo()
	uc := NewCreateServiceUseCase(repo, plainHasher{}, newNopLogger())

	result, err := uc.Execute(context.Background(), CreateServiceCommand{
		SID: "SVC-1", BandwidthLimit: 1_000_000, NodeGroupID: 2, MonthlyResetDay: 5,
	})
	require.NoError(t, err)
	assert.NotZero(t, result.ServiceID)
	assert.NotEmpty(t, result.UUID)
	assert.NotEmpty(t, result.Token)

	row := repo.row("SVC-1")
	require.NotNil(t, row)
	assert.Equal(t, service.StatusPending, row.status, "a new service starts pending")
	assert.Equal(t, uint(2), row.groupID)
	assert.Equal(t, 5, row.resetDay)
}

func TestCreateServiceValidation(t *testing.T) {
	uc := NewCreateServiceUseCase(newFakeServiceRepo(), plainHasher{}, newNopLogger())

	_, err := uc.Execute(context.Background(), CreateServiceCommand{MonthlyResetDay: 5})
	assert.True(t, apperrors.IsInvalidArgumentError(err), "missing sid")

	_, err = uc.Execute(context.Background(), CreateServiceCommand{SID: "SVC-1", MonthlyResetDay: 31})
	assert.True(t, apperrors.IsInvalidArgumentError(err), "reset day out of range")
}

func TestCreateServiceDuplicateSID(t *testing.T) {
	repo := newFakeServiceRepo()
	uc := NewCreateServiceUseCase(repo, plainHasher{}, newNopLogger())

	_, err := uc.Execute(context.Background(), CreateServiceCommand{SID: "SVC-1", MonthlyResetDay: 1})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), CreateServiceCommand{SID: "SVC-1", MonthlyResetDay: 1})
	assert.True(t, apperrors.IsConflictError(err))
}

func TestUpdateServiceGroupChangeInvalidatesLists(t *testing.T) {
	repo := newFakeServiceRepo()
	fieldCache := newFakeFieldCache()
	listCache := newFakeListCache()
	uc := NewUpdateServiceUseCase(repo, fieldCache, listCache, newNopLogger())
	ctx := context.Background()

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 0, 0, 0)

	newGroup := uint(7)
	require.NoError(t, uc.Execute(ctx, UpdateServiceCommand{SID: "SVC-1", NodeGroupID: &newGroup}))

	assert.Equal(t, uint(7), repo.row("SVC-1").groupID)
	assert.Contains(t, fieldCache.invalidated, fieldKey("SVC-1", cache.FieldNodeGroupID))
	assert.Contains(t, listCache.invalidated, "SVC-1")
}

func TestUpdateServiceLimitChangeKeepsCaches(t *testing.T) {
	repo := newFakeServiceRepo()
	fieldCache := newFakeFieldCache()
	listCache := newFakeListCache()
	uc := NewUpdateServiceUseCase(repo, fieldCache, listCache, newNopLogger())

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 0, 0, 1_000_000)

	newLimit := uint64(5_000_000)
	require.NoError(t, uc.Execute(context.Background(), UpdateServiceCommand{SID: "SVC-1", BandwidthLimit: &newLimit}))

	assert.Equal(t, uint64(5_000_000), repo.row("SVC-1").limit)
	// The node lists did not change; status takes effect at the next
	// evaluation.
	assert.Empty(t, listCache.invalidated)
}

func TestChangeServiceStatusSuspendDefaultsToBilling(t *testing.T) {
	repo := newFakeServiceRepo()
	fieldCache := newFakeFieldCache()
	listCache := newFakeListCache()
	uc := NewChangeServiceStatusUseCase(repo, fieldCache, listCache, newNopLogger())

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 0, 0, 0)

	require.NoError(t, uc.Execute(context.Background(), ChangeServiceStatusCommand{
		SID: "SVC-1", NewStatus: service.StatusSuspended,
	}))

	row := repo.row("SVC-1")
	assert.Equal(t, service.StatusSuspended, row.status)
	assert.Equal(t, service.SuspendReasonBilling, row.reason)
	assert.Contains(t, fieldCache.invalidated, fieldKey("SVC-1", cache.FieldStatus))
	assert.Contains(t, listCache.invalidated, "SVC-1")
}

func TestChangeServiceStatusRejectsInvalidTransition(t *testing.T) {
	repo := newFakeServiceRepo()
	uc := NewChangeServiceStatusUseCase(repo, newFakeFieldCache(), newFakeListCache(), newNopLogger())

	repo.seed("SVC-1", service.StatusExpired, service.SuspendReasonNone, 0, 0, 0)

	err := uc.Execute(context.Background(), ChangeServiceStatusCommand{
		SID: "SVC-1", NewStatus: service.StatusActive,
	})
	assert.True(t, apperrors.IsConflictError(err), "expired is terminal, got %v", err)
}

func TestDeleteServiceDropsCacheEntries(t *testing.T) {
	repo := newFakeServiceRepo()
	fieldCache := newFakeFieldCache()
	listCache := newFakeListCache()
	uc := NewDeleteServiceUseCase(repo, fieldCache, listCache, newNopLogger())
	ctx := context.Background()

	repo.seed("SVC-1", service.StatusActive, service.SuspendReasonNone, 0, 0, 0)
	require.NoError(t, fieldCache.SetField(ctx, "SVC-1", cache.FieldStatus, "active"))

	require.NoError(t, uc.Execute(ctx, "SVC-1"))

	assert.Nil(t, repo.row("SVC-1"))
	_, ok := fieldCache.GetField(ctx, "SVC-1", cache.FieldStatus)
	assert.False(t, ok)
	assert.Contains(t, listCache.invalidated, "SVC-1")
}

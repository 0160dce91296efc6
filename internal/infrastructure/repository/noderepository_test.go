package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterd-io/meterd/internal/domain/node"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
)

func storedGroup(t *testing.T, repo node.GroupRepository, name string, enabled bool) *node.NodeGroup {
	t.Helper()

	g, err := node.NewNodeGroup(name, 1.0, 0)
	require.NoError(t, err)
	if !enabled {
		g.Disable()
	}
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

func storedNode(t *testing.T, repo node.Repository, name string, groupID uint, rate float64, sortOrder int) *node.Node {
	t.Helper()

	n, err := node.NewNode(name, name+".example.com", 8388, "shadowsocks", "aes-256-gcm", groupID, rate)
	require.NoError(t, err)
	require.NoError(t, n.ChangeStatus(node.NodeStatusActive))
	n.ChangeSortOrder(sortOrder)
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestNodeRepositoryListEnabledByGroupOrdering(t *testing.T) {
	gdb := setupTestDB(t)
	groupRepo := NewNodeGroupRepository(gdb, newNopLogger())
	nodeRepo := NewNodeRepository(gdb, newNopLogger())
	ctx := context.Background()

	g := storedGroup(t, groupRepo, "asia", true)

	// Inserted out of order on purpose.
	storedNode(t, nodeRepo, "c-high-rate", g.ID(), 2.0, 0)
	storedNode(t, nodeRepo, "b-second", g.ID(), 1.0, 5)
	storedNode(t, nodeRepo, "a-first", g.ID(), 1.0, 1)

	// Inactive node in the same group must be filtered out.
	inactive, err := node.NewNode("d-down", "d.example.com", 8388, "shadowsocks", "aes-256-gcm", g.ID(), 1.0)
	require.NoError(t, err)
	require.NoError(t, nodeRepo.Create(ctx, inactive))

	nodes, err := nodeRepo.ListEnabledByGroup(ctx, g.ID())
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	names := []string{nodes[0].Name(), nodes[1].Name(), nodes[2].Name()}
	assert.Equal(t, []string{"a-first", "b-second", "c-high-rate"}, names,
		"ordering must be rate ASC, sort_order ASC, id ASC")
}

func TestNodeRepositoryListEnabledByGroupEmpty(t *testing.T) {
	gdb := setupTestDB(t)
	groupRepo := NewNodeGroupRepository(gdb, newNopLogger())
	nodeRepo := NewNodeRepository(gdb, newNopLogger())

	g := storedGroup(t, groupRepo, "empty", true)

	nodes, err := nodeRepo.ListEnabledByGroup(context.Background(), g.ID())
	require.NoError(t, err)
	assert.Empty(t, nodes, "a group with no enabled nodes resolves to an empty list, not an error")
}

func TestNodeRepositoryListEnabledSkipsDisabledGroups(t *testing.T) {
	gdb := setupTestDB(t)
	groupRepo := NewNodeGroupRepository(gdb, newNopLogger())
	nodeRepo := NewNodeRepository(gdb, newNopLogger())
	ctx := context.Background()

	enabled := storedGroup(t, groupRepo, "enabled-group", true)
	disabled := storedGroup(t, groupRepo, "disabled-group", false)

	storedNode(t, nodeRepo, "visible", enabled.ID(), 1.0, 0)
	storedNode(t, nodeRepo, "hidden", disabled.ID(), 1.0, 0)

	nodes, err := nodeRepo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "visible", nodes[0].Name())
}

func TestNodeRepositoryIncrementLoadClampsAtZero(t *testing.T) {
	gdb := setupTestDB(t)
	groupRepo := NewNodeGroupRepository(gdb, newNopLogger())
	nodeRepo := NewNodeRepository(gdb, newNopLogger())
	ctx := context.Background()

	g := storedGroup(t, groupRepo, "asia", true)
	n := storedNode(t, nodeRepo, "node-1", g.ID(), 1.0, 0)

	require.NoError(t, nodeRepo.IncrementLoad(ctx, n.ID(), 3))
	require.NoError(t, nodeRepo.IncrementLoad(ctx, n.ID(), -5))

	got, err := nodeRepo.GetByID(ctx, n.ID())
	require.NoError(t, err)
	assert.Zero(t, got.CurrentLoad(), "load must clamp at zero")

	err = nodeRepo.IncrementLoad(ctx, 9999, 1)
	assert.True(t, apperrors.IsNotFoundError(err))
}

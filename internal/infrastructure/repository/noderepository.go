package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/meterd-io/meterd/internal/domain/node"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/mappers"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/models"
	"github.com/meterd-io/meterd/internal/shared/db"
	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// nodeListOrder is the canonical ordering for every node listing. Cached
// lists and direct store reads must agree on it.
const nodeListOrder = "rate ASC, sort_order ASC, id ASC"

// NodeRepositoryImpl implements node.Repository.
type NodeRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.NodeMapper
	logger logger.Interface
}

// NewNodeRepository creates a node repository.
func NewNodeRepository(gdb *gorm.DB, log logger.Interface) node.Repository {
	return &NodeRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewNodeMapper(),
		logger: log,
	}
}

// Create inserts a new node row.
func (r *NodeRepositoryImpl) Create(ctx context.Context, n *node.Node) error {
	model := r.mapper.ToModel(n)

	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateErr(err) {
			return apperrors.NewConflictError("node with this name already exists")
		}
		r.logger.Errorw("failed to create node", "name", n.Name(), "error", err)
		return apperrors.NewStoreUnavailableError("failed to create node", err)
	}

	if err := n.SetID(model.ID); err != nil {
		return apperrors.NewInternalError("failed to set node ID", err)
	}

	r.logger.Infow("node created", "id", model.ID, "name", model.Name)
	return nil
}

// GetByID retrieves a node by ID.
func (r *NodeRepositoryImpl) GetByID(ctx context.Context, id uint) (*node.Node, error) {
	var model models.NodeModel
	if err := db.FromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("node not found")
		}
		r.logger.Errorw("failed to get node", "id", id, "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to get node", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map node", err)
	}
	return entity, nil
}

// Update persists node changes with optimistic locking.
func (r *NodeRepositoryImpl) Update(ctx context.Context, n *node.Node) error {
	model := r.mapper.ToModel(n)
	previousVersion := model.Version - 1

	result := db.FromContext(ctx, r.db).Model(&models.NodeModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":           model.Name,
			"server_address": model.ServerAddress,
			"server_port":    model.ServerPort,
			"protocol":       model.Protocol,
			"method":         model.Method,
			"group_id":       model.GroupID,
			"status":         model.Status,
			"rate":           model.Rate,
			"sort_order":     model.SortOrder,
			"capacity":       model.Capacity,
			"updated_at":     model.UpdatedAt,
			"version":        model.Version,
		})

	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return apperrors.NewConflictError("node with this name already exists")
		}
		r.logger.Errorw("failed to update node", "id", model.ID, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to update node", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConflictError("node has been modified by another transaction or not found")
	}

	return nil
}

// Delete soft deletes a node.
func (r *NodeRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := db.FromContext(ctx, r.db).Delete(&models.NodeModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete node", "id", id, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to delete node", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("node not found")
	}
	return nil
}

// ListEnabledByGroup returns the enabled nodes of one group in the canonical
// order. A group with no enabled nodes yields an empty slice.
func (r *NodeRepositoryImpl) ListEnabledByGroup(ctx context.Context, groupID uint) ([]*node.Node, error) {
	var nodeModels []*models.NodeModel
	err := db.FromContext(ctx, r.db).
		Where("group_id = ? AND status = ?", groupID, node.NodeStatusActive.String()).
		Order(nodeListOrder).
		Find(&nodeModels).Error
	if err != nil {
		r.logger.Errorw("failed to list nodes by group", "group_id", groupID, "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to list nodes", err)
	}

	entities, err := r.mapper.ToEntities(nodeModels)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map nodes", err)
	}
	return entities, nil
}

// ListEnabled returns all enabled nodes whose group is also enabled, in the
// canonical order. This backs the default-group fallback.
func (r *NodeRepositoryImpl) ListEnabled(ctx context.Context) ([]*node.Node, error) {
	var nodeModels []*models.NodeModel
	err := db.FromContext(ctx, r.db).
		Joins("JOIN node_groups ON node_groups.id = nodes.group_id AND node_groups.deleted_at IS NULL").
		Where("nodes.status = ? AND node_groups.status = ?", node.NodeStatusActive.String(), node.GroupStatusEnabled.String()).
		Order("nodes.rate ASC, nodes.sort_order ASC, nodes.id ASC").
		Find(&nodeModels).Error
	if err != nil {
		r.logger.Errorw("failed to list enabled nodes", "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to list nodes", err)
	}

	entities, err := r.mapper.ToEntities(nodeModels)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map nodes", err)
	}
	return entities, nil
}

// IncrementLoad adjusts the current load counter atomically, clamping
// decrements at zero.
func (r *NodeRepositoryImpl) IncrementLoad(ctx context.Context, id uint, delta int) error {
	var expr interface{}
	if delta >= 0 {
		expr = gorm.Expr("current_load + ?", delta)
	} else {
		expr = gorm.Expr("CASE WHEN current_load < ? THEN 0 ELSE current_load - ? END", -delta, -delta)
	}

	result := db.FromContext(ctx, r.db).Model(&models.NodeModel{}).
		Where("id = ?", id).
		UpdateColumn("current_load", expr)

	if result.Error != nil {
		r.logger.Errorw("failed to adjust node load", "id", id, "delta", delta, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to adjust node load", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("node not found")
	}
	return nil
}

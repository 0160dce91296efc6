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

// NodeGroupRepositoryImpl implements node.GroupRepository.
type NodeGroupRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.NodeGroupMapper
	logger logger.Interface
}

// NewNodeGroupRepository creates a node group repository.
func NewNodeGroupRepository(gdb *gorm.DB, log logger.Interface) node.GroupRepository {
	return &NodeGroupRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewNodeGroupMapper(),
		logger: log,
	}
}

// Create inserts a new node group row.
func (r *NodeGroupRepositoryImpl) Create(ctx context.Context, g *node.NodeGroup) error {
	model := r.mapper.ToModel(g)

	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateErr(err) {
			return apperrors.NewConflictError("node group with this name already exists")
		}
		r.logger.Errorw("failed to create node group", "name", g.Name(), "error", err)
		return apperrors.NewStoreUnavailableError("failed to create node group", err)
	}

	if err := g.SetID(model.ID); err != nil {
		return apperrors.NewInternalError("failed to set node group ID", err)
	}

	r.logger.Infow("node group created", "id", model.ID, "name", model.Name)
	return nil
}

// GetByID retrieves a node group by ID.
func (r *NodeGroupRepositoryImpl) GetByID(ctx context.Context, id uint) (*node.NodeGroup, error) {
	var model models.NodeGroupModel
	if err := db.FromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("node group not found")
		}
		r.logger.Errorw("failed to get node group", "id", id, "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to get node group", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map node group", err)
	}
	return entity, nil
}

// Update persists node group changes with optimistic locking.
func (r *NodeGroupRepositoryImpl) Update(ctx context.Context, g *node.NodeGroup) error {
	model := r.mapper.ToModel(g)
	previousVersion := model.Version - 1

	result := db.FromContext(ctx, r.db).Model(&models.NodeGroupModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"ratio":        model.Ratio,
			"device_limit": model.DeviceLimit,
			"status":       model.Status,
			"sort_order":   model.SortOrder,
			"updated_at":   model.UpdatedAt,
			"version":      model.Version,
		})

	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return apperrors.NewConflictError("node group with this name already exists")
		}
		r.logger.Errorw("failed to update node group", "id", model.ID, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to update node group", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewConflictError("node group has been modified by another transaction or not found")
	}

	return nil
}

// Delete soft deletes a node group.
func (r *NodeGroupRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := db.FromContext(ctx, r.db).Delete(&models.NodeGroupModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete node group", "id", id, "error", result.Error)
		return apperrors.NewStoreUnavailableError("failed to delete node group", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("node group not found")
	}
	return nil
}

// List returns all node groups ordered by sort order.
func (r *NodeGroupRepositoryImpl) List(ctx context.Context) ([]*node.NodeGroup, error) {
	var groupModels []*models.NodeGroupModel
	err := db.FromContext(ctx, r.db).
		Order("sort_order ASC, id ASC").
		Find(&groupModels).Error
	if err != nil {
		r.logger.Errorw("failed to list node groups", "error", err)
		return nil, apperrors.NewStoreUnavailableError("failed to list node groups", err)
	}

	entities, err := r.mapper.ToEntities(groupModels)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map node groups", err)
	}
	return entities, nil
}

package mappers

import (
	"fmt"

	"github.com/meterd-io/meterd/internal/domain/node"
	"github.com/meterd-io/meterd/internal/infrastructure/persistence/models"
)

// NodeMapper converts between node.Node and models.NodeModel.
type NodeMapper struct{}

// NewNodeMapper creates a NodeMapper.
func NewNodeMapper() NodeMapper {
	return NodeMapper{}
}

// ToModel maps a domain node to its persistence model.
func (NodeMapper) ToModel(n *node.Node) *models.NodeModel {
	return &models.NodeModel{
		ID:            n.ID(),
		Name:          n.Name(),
		ServerAddress: n.ServerAddress(),
		ServerPort:    n.ServerPort(),
		Protocol:      n.Protocol(),
		Method:        n.Method(),
		GroupID:       n.GroupID(),
		Status:        n.Status().String(),
		Rate:          n.Rate(),
		SortOrder:     n.SortOrder(),
		Capacity:      n.Capacity(),
		CurrentLoad:   n.CurrentLoad(),
		Version:       n.Version(),
		CreatedAt:     n.CreatedAt(),
		UpdatedAt:     n.UpdatedAt(),
	}
}

// ToEntity maps a persistence model to the domain node.
func (NodeMapper) ToEntity(m *models.NodeModel) (*node.Node, error) {
	status := node.NodeStatus(m.Status)
	if !node.ValidNodeStatuses[status] {
		return nil, fmt.Errorf("node %d: invalid status %q", m.ID, m.Status)
	}
	return node.ReconstructNode(
		m.ID,
		m.Name, m.ServerAddress,
		m.ServerPort,
		m.Protocol, m.Method,
		m.GroupID,
		status,
		m.Rate,
		m.SortOrder,
		m.Capacity, m.CurrentLoad,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

// ToEntities maps a slice of models.
func (mp NodeMapper) ToEntities(ms []*models.NodeModel) ([]*node.Node, error) {
	entities := make([]*node.Node, 0, len(ms))
	for _, m := range ms {
		e, err := mp.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// NodeGroupMapper converts between node.NodeGroup and models.NodeGroupModel.
type NodeGroupMapper struct{}

// NewNodeGroupMapper creates a NodeGroupMapper.
func NewNodeGroupMapper() NodeGroupMapper {
	return NodeGroupMapper{}
}

// ToModel maps a domain node group to its persistence model.
func (NodeGroupMapper) ToModel(g *node.NodeGroup) *models.NodeGroupModel {
	return &models.NodeGroupModel{
		ID:          g.ID(),
		Name:        g.Name(),
		Ratio:       g.Ratio(),
		DeviceLimit: g.DeviceLimit(),
		Status:      g.Status().String(),
		SortOrder:   g.SortOrder(),
		Version:     g.Version(),
		CreatedAt:   g.CreatedAt(),
		UpdatedAt:   g.UpdatedAt(),
	}
}

// ToEntity maps a persistence model to the domain node group.
func (NodeGroupMapper) ToEntity(m *models.NodeGroupModel) (*node.NodeGroup, error) {
	return node.ReconstructNodeGroup(
		m.ID,
		m.Name,
		m.Ratio,
		m.DeviceLimit,
		node.GroupStatus(m.Status),
		m.SortOrder,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

// ToEntities maps a slice of models.
func (mp NodeGroupMapper) ToEntities(ms []*models.NodeGroupModel) ([]*node.NodeGroup, error) {
	entities := make([]*node.NodeGroup, 0, len(ms))
	for _, m := range ms {
		e, err := mp.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

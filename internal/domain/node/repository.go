package node

import "context"

// Repository is the persistence port for nodes.
//
// Every listing method returns nodes ordered by (rate ASC, sort_order ASC,
// id ASC) so cached and uncached reads agree on ordering.
type Repository interface {
	Create(ctx context.Context, n *Node) error
	GetByID(ctx context.Context, id uint) (*Node, error)
	Update(ctx context.Context, n *Node) error
	Delete(ctx context.Context, id uint) error

	// ListEnabledByGroup returns the enabled nodes of one group.
	ListEnabledByGroup(ctx context.Context, groupID uint) ([]*Node, error)

	// ListEnabled returns all enabled nodes across every enabled group; the
	// fallback for services without a group assignment.
	ListEnabled(ctx context.Context) ([]*Node, error)

	// IncrementLoad adjusts the node's current load counter atomically.
	// Negative deltas decrement and clamp at zero.
	IncrementLoad(ctx context.Context, id uint, delta int) error
}

// GroupRepository is the persistence port for node groups.
type GroupRepository interface {
	Create(ctx context.Context, g *NodeGroup) error
	GetByID(ctx context.Context, id uint) (*NodeGroup, error)
	Update(ctx context.Context, g *NodeGroup) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*NodeGroup, error)
}

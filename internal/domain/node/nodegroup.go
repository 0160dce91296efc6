package node

import (
	"fmt"
	"time"
)

// GroupStatus is the enabled/disabled state of a node group.
type GroupStatus string

const (
	GroupStatusEnabled  GroupStatus = "enabled"
	GroupStatusDisabled GroupStatus = "disabled"
)

// String returns the status as a string.
func (s GroupStatus) String() string {
	return string(s)
}

// NodeGroup is a named set of nodes sharing a bandwidth ratio and device cap.
type NodeGroup struct {
	id          uint
	name        string
	ratio       float64 // bandwidth multiplier applied to the group's nodes
	deviceLimit uint    // concurrent device cap per service, 0 = uncapped
	status      GroupStatus
	sortOrder   int
	version     int
	createdAt   time.Time
	updatedAt   time.Time
}

// NewNodeGroup creates a new enabled node group.
func NewNodeGroup(name string, ratio float64, deviceLimit uint) (*NodeGroup, error) {
	if name == "" {
		return nil, fmt.Errorf("node group name is required")
	}
	if ratio <= 0 {
		return nil, fmt.Errorf("ratio must be positive, got %v", ratio)
	}

	now := time.Now().UTC()
	return &NodeGroup{
		name:        name,
		ratio:       ratio,
		deviceLimit: deviceLimit,
		status:      GroupStatusEnabled,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructNodeGroup rebuilds a node group from persistence.
func ReconstructNodeGroup(
	id uint,
	name string,
	ratio float64,
	deviceLimit uint,
	status GroupStatus,
	sortOrder int,
	version int,
	createdAt, updatedAt time.Time,
) (*NodeGroup, error) {
	if id == 0 {
		return nil, fmt.Errorf("node group ID cannot be zero")
	}
	if status != GroupStatusEnabled && status != GroupStatusDisabled {
		return nil, fmt.Errorf("invalid node group status: %s", status)
	}

	return &NodeGroup{
		id:          id,
		name:        name,
		ratio:       ratio,
		deviceLimit: deviceLimit,
		status:      status,
		sortOrder:   sortOrder,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (g *NodeGroup) ID() uint             { return g.id }
func (g *NodeGroup) Name() string         { return g.name }
func (g *NodeGroup) Ratio() float64       { return g.ratio }
func (g *NodeGroup) DeviceLimit() uint    { return g.deviceLimit }
func (g *NodeGroup) Status() GroupStatus  { return g.status }
func (g *NodeGroup) SortOrder() int       { return g.sortOrder }
func (g *NodeGroup) Version() int         { return g.version }
func (g *NodeGroup) CreatedAt() time.Time { return g.createdAt }
func (g *NodeGroup) UpdatedAt() time.Time { return g.updatedAt }

// IsEnabled reports whether the group may serve traffic.
func (g *NodeGroup) IsEnabled() bool {
	return g.status == GroupStatusEnabled
}

// SetID sets the group ID after insertion. Persistence layer use only.
func (g *NodeGroup) SetID(id uint) error {
	if g.id != 0 {
		return fmt.Errorf("node group ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("node group ID cannot be zero")
	}
	g.id = id
	return nil
}

// Enable marks the group as serving traffic.
func (g *NodeGroup) Enable() {
	if g.status == GroupStatusEnabled {
		return
	}
	g.status = GroupStatusEnabled
	g.touch()
}

// Disable takes the group out of service.
func (g *NodeGroup) Disable() {
	if g.status == GroupStatusDisabled {
		return
	}
	g.status = GroupStatusDisabled
	g.touch()
}

func (g *NodeGroup) touch() {
	g.updatedAt = time.Now().UTC()
	g.version++
}

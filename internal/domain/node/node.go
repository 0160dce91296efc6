// Package node holds the node and node group entities: the proxy servers a
// service may use, partitioned into named groups.
package node

import (
	"fmt"
	"time"
)

// NodeStatus is the operational state of a proxy node.
type NodeStatus string

const (
	NodeStatusActive      NodeStatus = "active"
	NodeStatusInactive    NodeStatus = "inactive"
	NodeStatusMaintenance NodeStatus = "maintenance"
)

// ValidNodeStatuses enumerates every recognized node status.
var ValidNodeStatuses = map[NodeStatus]bool{
	NodeStatusActive:      true,
	NodeStatusInactive:    true,
	NodeStatusMaintenance: true,
}

// String returns the status as a string.
func (s NodeStatus) String() string {
	return string(s)
}

// Node is a proxy server instance usable by services in its group.
type Node struct {
	id            uint
	name          string
	serverAddress string
	serverPort    uint16
	protocol      string
	method        string
	groupID       uint
	status        NodeStatus
	rate          float64 // traffic billing multiplier, primary listing key
	sortOrder     int
	capacity      uint
	currentLoad   uint
	version       int
	createdAt     time.Time
	updatedAt     time.Time
}

// NewNode creates a new inactive node.
func NewNode(name, serverAddress string, serverPort uint16, protocol, method string, groupID uint, rate float64) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node name is required")
	}
	if serverAddress == "" {
		return nil, fmt.Errorf("server address is required")
	}
	if serverPort == 0 {
		return nil, fmt.Errorf("server port is required")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %v", rate)
	}

	now := time.Now().UTC()
	return &Node{
		name:          name,
		serverAddress: serverAddress,
		serverPort:    serverPort,
		protocol:      protocol,
		method:        method,
		groupID:       groupID,
		status:        NodeStatusInactive,
		rate:          rate,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructNode rebuilds a node from persistence.
func ReconstructNode(
	id uint,
	name, serverAddress string,
	serverPort uint16,
	protocol, method string,
	groupID uint,
	status NodeStatus,
	rate float64,
	sortOrder int,
	capacity, currentLoad uint,
	version int,
	createdAt, updatedAt time.Time,
) (*Node, error) {
	if id == 0 {
		return nil, fmt.Errorf("node ID cannot be zero")
	}
	if !ValidNodeStatuses[status] {
		return nil, fmt.Errorf("invalid node status: %s", status)
	}

	return &Node{
		id:            id,
		name:          name,
		serverAddress: serverAddress,
		serverPort:    serverPort,
		protocol:      protocol,
		method:        method,
		groupID:       groupID,
		status:        status,
		rate:          rate,
		sortOrder:     sortOrder,
		capacity:      capacity,
		currentLoad:   currentLoad,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}, nil
}

func (n *Node) ID() uint              { return n.id }
func (n *Node) Name() string          { return n.name }
func (n *Node) ServerAddress() string { return n.serverAddress }
func (n *Node) ServerPort() uint16    { return n.serverPort }
func (n *Node) Protocol() string      { return n.protocol }
func (n *Node) Method() string        { return n.method }
func (n *Node) GroupID() uint         { return n.groupID }
func (n *Node) Status() NodeStatus    { return n.status }
func (n *Node) Rate() float64         { return n.rate }
func (n *Node) SortOrder() int        { return n.sortOrder }
func (n *Node) Capacity() uint        { return n.capacity }
func (n *Node) CurrentLoad() uint     { return n.currentLoad }
func (n *Node) Version() int          { return n.version }
func (n *Node) CreatedAt() time.Time  { return n.createdAt }
func (n *Node) UpdatedAt() time.Time  { return n.updatedAt }

// IsEnabled reports whether the node may serve traffic.
func (n *Node) IsEnabled() bool {
	return n.status == NodeStatusActive
}

// SetID sets the node ID after insertion. Persistence layer use only.
func (n *Node) SetID(id uint) error {
	if n.id != 0 {
		return fmt.Errorf("node ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("node ID cannot be zero")
	}
	n.id = id
	return nil
}

// ChangeStatus updates the node's operational state.
func (n *Node) ChangeStatus(status NodeStatus) error {
	if !ValidNodeStatuses[status] {
		return fmt.Errorf("invalid node status: %s", status)
	}
	if n.status == status {
		return nil
	}
	n.status = status
	n.touch()
	return nil
}

// ChangeGroup moves the node to another group.
func (n *Node) ChangeGroup(groupID uint) {
	if n.groupID == groupID {
		return
	}
	n.groupID = groupID
	n.touch()
}

// ChangeRate updates the traffic billing multiplier.
func (n *Node) ChangeRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", rate)
	}
	if n.rate == rate {
		return nil
	}
	n.rate = rate
	n.touch()
	return nil
}

// ChangeSortOrder updates the tie-break position within equal-rate nodes.
func (n *Node) ChangeSortOrder(sortOrder int) {
	if n.sortOrder == sortOrder {
		return
	}
	n.sortOrder = sortOrder
	n.touch()
}

func (n *Node) touch() {
	n.updatedAt = time.Now().UTC()
	n.version++
}

package usecases

import (
	"context"
	"fmt"
	"strconv"

	"github.com/meterd-io/meterd/internal/domain/node"
	"github.com/meterd-io/meterd/internal/domain/service"
	"github.com/meterd-io/meterd/internal/infrastructure/cache"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// ResolvedNode is one usable node in a service's resolved list.
type ResolvedNode struct {
	ID            uint
	Name          string
	ServerAddress string
	ServerPort    uint16
	Protocol      string
	Method        string
	GroupID       uint
	Rate          float64
	SortOrder     int
}

// ResolveNodesUseCase answers "which nodes may this service use". Group 0
// means no explicit assignment and falls back to every enabled node. Both
// caches are optimizations: any cache failure degrades to a store read.
type ResolveNodesUseCase struct {
	serviceRepo service.Repository
	nodeRepo    node.Repository
	listCache   cache.NodeListCache
	fieldCache  cache.ServiceFieldCache
	logger      logger.Interface
}

func NewResolveNodesUseCase(
	serviceRepo service.Repository,
	nodeRepo node.Repository,
	listCache cache.NodeListCache,
	fieldCache cache.ServiceFieldCache,
	logger logger.Interface,
) *ResolveNodesUseCase {
	return &ResolveNodesUseCase{
		serviceRepo: serviceRepo,
		nodeRepo:    nodeRepo,
		listCache:   listCache,
		fieldCache:  fieldCache,
		logger:      logger,
	}
}

// Execute resolves the node list for a service. An empty list is a valid
// answer, not an error.
func (uc *ResolveNodesUseCase) Execute(ctx context.Context, serviceSID string) ([]ResolvedNode, error) {
	groupID, err := uc.resolveGroupID(ctx, serviceSID)
	if err != nil {
		return nil, err
	}

	if cached, ok := uc.listCache.GetList(ctx, serviceSID, groupID); ok {
		return fromCachedNodes(cached), nil
	}

	var nodes []*node.Node
	if groupID == 0 {
		nodes, err = uc.nodeRepo.ListEnabled(ctx)
	} else {
		nodes, err = uc.nodeRepo.ListEnabledByGroup(ctx, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes for service: %w", err)
	}

	cachedNodes := toCachedNodes(nodes)
	if err := uc.listCache.SetList(ctx, serviceSID, groupID, cachedNodes); err != nil {
		uc.logger.Warnw("failed to populate node list cache", "sid", serviceSID, "error", err)
	}

	return fromCachedNodes(cachedNodes), nil
}

// resolveGroupID reads the service's group through the field cache.
func (uc *ResolveNodesUseCase) resolveGroupID(ctx context.Context, serviceSID string) (uint, error) {
	if value, ok := uc.fieldCache.GetField(ctx, serviceSID, cache.FieldNodeGroupID); ok {
		if groupID, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint(groupID), nil
		}
		uc.logger.Warnw("cached node group id corrupt, falling back to store",
			"sid", serviceSID, "value", value)
	}

	svc, err := uc.serviceRepo.GetBySID(ctx, serviceSID)
	if err != nil {
		return 0, fmt.Errorf("failed to get service for node resolution: %w", err)
	}

	groupID := svc.NodeGroupID()
	if err := uc.fieldCache.SetField(ctx, serviceSID, cache.FieldNodeGroupID, strconv.FormatUint(uint64(groupID), 10)); err != nil {
		uc.logger.Warnw("failed to cache node group id", "sid", serviceSID, "error", err)
	}
	return groupID, nil
}

func toCachedNodes(nodes []*node.Node) []cache.CachedNode {
	cached := make([]cache.CachedNode, 0, len(nodes))
	for _, n := range nodes {
		cached = append(cached, cache.CachedNode{
			ID:            n.ID(),
			Name:          n.Name(),
			ServerAddress: n.ServerAddress(),
			ServerPort:    n.ServerPort(),
			Protocol:      n.Protocol(),
			Method:        n.Method(),
			GroupID:       n.GroupID(),
			Rate:          n.Rate(),
			SortOrder:     n.SortOrder(),
		})
	}
	return cached
}

func fromCachedNodes(cached []cache.CachedNode) []ResolvedNode {
	resolved := make([]ResolvedNode, 0, len(cached))
	for _, c := range cached {
		resolved = append(resolved, ResolvedNode{
			ID:            c.ID,
			Name:          c.Name,
			ServerAddress: c.ServerAddress,
			ServerPort:    c.ServerPort,
			Protocol:      c.Protocol,
			Method:        c.Method,
			GroupID:       c.GroupID,
			Rate:          c.Rate,
			SortOrder:     c.SortOrder,
		})
	}
	return resolved
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/rolebitset"
)

// MemoryCache is a per-instance LRU with TTL expiry. Instances sharing a
// database rely on change events to invalidate each other.
type MemoryCache struct {
	nodes   *lru.LRU[string, permission.Node]
	members *lru.LRU[string, rolebitset.RoleBitset]

	// mu orders fills against invalidations
	mu         sync.Mutex
	generation uint64
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		nodes:   lru.NewLRU[string, permission.Node](size, nil, ttl),
		members: lru.NewLRU[string, rolebitset.RoleBitset](size, nil, ttl),
	}
}

func (c *MemoryCache) Generation(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *MemoryCache) GetNode(_ context.Context, key permission.NodeKey) (permission.Node, error) {
	node, ok := c.nodes.Get(nodeKey(key))
	if !ok {
		return permission.Node{}, ErrCacheMiss
	}
	return node, nil
}

func (c *MemoryCache) SetNode(_ context.Context, key permission.NodeKey, node permission.Node) error {
	c.nodes.Add(nodeKey(key), node)
	return nil
}

func (c *MemoryCache) FillNode(_ context.Context, generation uint64, key permission.NodeKey, node permission.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation == c.generation {
		c.nodes.Add(nodeKey(key), node)
	}
	return nil
}

func (c *MemoryCache) InvalidateNode(_ context.Context, key permission.NodeKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.nodes.Remove(nodeKey(key))
	return nil
}

func (c *MemoryCache) GetMemberRoles(_ context.Context, planetId uuid.UUID, userId uuid.UUID) (rolebitset.RoleBitset, error) {
	roles, ok := c.members.Get(memberKey(planetId, userId))
	if !ok {
		return rolebitset.RoleBitset{}, ErrCacheMiss
	}
	return roles, nil
}

func (c *MemoryCache) SetMemberRoles(_ context.Context, planetId uuid.UUID, userId uuid.UUID, roles rolebitset.RoleBitset) error {
	c.members.Add(memberKey(planetId, userId), roles)
	return nil
}

func (c *MemoryCache) FillMemberRoles(_ context.Context, generation uint64, planetId uuid.UUID, userId uuid.UUID,
	roles rolebitset.RoleBitset) error {

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation == c.generation {
		c.members.Add(memberKey(planetId, userId), roles)
	}
	return nil
}

func (c *MemoryCache) InvalidateMemberRoles(_ context.Context, planetId uuid.UUID, userId uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.members.Remove(memberKey(planetId, userId))
	return nil
}

func (c *MemoryCache) Len() int {
	return c.nodes.Len() + c.members.Len()
}

package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/rolebitset"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache holds the data read on every resolution. A node that does not exist is
// cached as the empty node, which resolves identically.
//
// Every invalidation moves the cache to a new generation. Read-through fills
// pass the generation read before loading from storage, and are dropped when
// an invalidation happened in between, so a slow read never caches the value
// a concurrent write replaced.
type Cache interface {
	Generation(ctx context.Context) (uint64, error)

	GetNode(ctx context.Context, key permission.NodeKey) (permission.Node, error)
	SetNode(ctx context.Context, key permission.NodeKey, node permission.Node) error
	FillNode(ctx context.Context, generation uint64, key permission.NodeKey, node permission.Node) error
	InvalidateNode(ctx context.Context, key permission.NodeKey) error

	GetMemberRoles(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (rolebitset.RoleBitset, error)
	SetMemberRoles(ctx context.Context, planetId uuid.UUID, userId uuid.UUID, roles rolebitset.RoleBitset) error
	FillMemberRoles(ctx context.Context, generation uint64, planetId uuid.UUID, userId uuid.UUID, roles rolebitset.RoleBitset) error
	InvalidateMemberRoles(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) error
}

func nodeKey(key permission.NodeKey) string {
	return fmt.Sprintf("node:%s:%s:%d", key.RoleId, key.TargetId, key.TargetType)
}

func memberKey(planetId uuid.UUID, userId uuid.UUID) string {
	return fmt.Sprintf("member:%s:%s", planetId, userId)
}

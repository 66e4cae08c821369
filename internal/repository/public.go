package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/repository/model"
	"planet-permission-service/internal/rolebitset"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrAlreadyHasRole      = errors.New("member already has role")
	ErrDoesNotHaveRole     = errors.New("member does not have role")
	ErrRoleLimitReached    = errors.New("planet role limit reached")
	ErrSiblingLimitReached = errors.New("channel sibling limit reached")
)

//go:generate mockgen -source=public.go -destination=mock_repository.go -package=repository

type Repository interface {
	// CreatePlanet stores a planet together with its default role.
	CreatePlanet(ctx context.Context, planet *model.Planet, defaultRole *model.Role) error
	GetPlanet(ctx context.Context, planetId uuid.UUID) (*model.Planet, error)

	// CreateRole assigns the role the next free local id.
	CreateRole(ctx context.Context, role *model.Role) error
	GetRoles(ctx context.Context, planetId uuid.UUID) ([]*model.Role, error)

	CreateMember(ctx context.Context, member *model.Member) error
	GetMember(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (*model.Member, error)
	// SetMemberRole flips one bit of the member's role bitset in a single
	// atomic update and returns the resulting bitset.
	SetMemberRole(ctx context.Context, planetId uuid.UUID, userId uuid.UUID, localRoleId int, value bool) (rolebitset.RoleBitset, error)

	CreateChannel(ctx context.Context, channel *model.Channel) error
	GetChannel(ctx context.Context, channelId uuid.UUID) (*model.Channel, error)
	// GetChannelsInRange returns the planet's channels with lower <= position < upper,
	// ordered by position.
	GetChannelsInRange(ctx context.Context, planetId uuid.UUID, lower uint64, upper uint64) ([]*model.Channel, error)

	GetNode(ctx context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) (*model.PermissionsNode, error)
	GetNodes(ctx context.Context, targetId uuid.UUID, targetType permission.TargetType, roleIds []uuid.UUID) ([]*model.PermissionsNode, error)
	UpsertNode(ctx context.Context, node *model.PermissionsNode) error
	DeleteNode(ctx context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) error
}

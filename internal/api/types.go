package api

import (
	"github.com/google/uuid"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/repository/model"
)

// ErrorDomain is set on every errdetails.ErrorInfo the service returns.
const ErrorDomain = "planet-permission-service"

// Reasons carried in errdetails.ErrorInfo on failed calls.
const (
	ReasonInsufficientPermission = "INSUFFICIENT_PERMISSION"
	ReasonInsufficientAuthority  = "INSUFFICIENT_AUTHORITY"
	ReasonPlanetNotFound         = "PLANET_NOT_FOUND"
	ReasonMemberNotFound         = "MEMBER_NOT_FOUND"
	ReasonRoleNotFound           = "ROLE_NOT_FOUND"
	ReasonChannelNotFound        = "CHANNEL_NOT_FOUND"
	ReasonAlreadyExists          = "ALREADY_EXISTS"
	ReasonAlreadyHasRole         = "ALREADY_HAS_ROLE"
	ReasonDoesNotHaveRole        = "DOES_NOT_HAVE_ROLE"
	ReasonDefaultRole            = "DEFAULT_ROLE"
	ReasonRoleLimitReached       = "ROLE_LIMIT_REACHED"
	ReasonSiblingLimitReached    = "SIBLING_LIMIT_REACHED"
	ReasonDepthExceeded          = "DEPTH_EXCEEDED"
	ReasonInvalidLocalPosition   = "INVALID_LOCAL_POSITION"
	ReasonMalformedPosition      = "MALFORMED_POSITION"
	ReasonUnknownPermission      = "UNKNOWN_PERMISSION"
	ReasonUnknownTargetType      = "UNKNOWN_TARGET_TYPE"
)

type CreatePlanetRequest struct {
	Name    string    `json:"name"`
	OwnerId uuid.UUID `json:"ownerId"`
}

type CreatePlanetResponse struct {
	Planet      *model.Planet `json:"planet"`
	DefaultRole *model.Role   `json:"defaultRole"`
	Owner       *model.Member `json:"owner"`
}

type AddMemberRequest struct {
	PlanetId uuid.UUID `json:"planetId"`
	UserId   uuid.UUID `json:"userId"`
}

type AddMemberResponse struct {
	Member *model.Member `json:"member"`
}

type CreateRoleRequest struct {
	ActorId   uuid.UUID `json:"actorId"`
	PlanetId  uuid.UUID `json:"planetId"`
	Name      string    `json:"name"`
	Authority uint32    `json:"authority"`
	IsAdmin   bool      `json:"isAdmin"`

	Permissions         uint64 `json:"permissions,string"`
	ChatPermissions     uint64 `json:"chatPermissions,string"`
	CategoryPermissions uint64 `json:"categoryPermissions,string"`
	VoicePermissions    uint64 `json:"voicePermissions,string"`
}

type CreateRoleResponse struct {
	Role *model.Role `json:"role"`
}

type GetRolesRequest struct {
	PlanetId uuid.UUID `json:"planetId"`
}

type GetRolesResponse struct {
	Roles []*model.Role `json:"roles"`
}

type GetMemberRolesRequest struct {
	PlanetId uuid.UUID `json:"planetId"`
	UserId   uuid.UUID `json:"userId"`
}

type GetMemberRolesResponse struct {
	LocalRoleIds []int       `json:"localRoleIds"`
	RoleIds      []uuid.UUID `json:"roleIds"`
}

type SetMemberRoleRequest struct {
	ActorId  uuid.UUID `json:"actorId"`
	PlanetId uuid.UUID `json:"planetId"`
	UserId   uuid.UUID `json:"userId"`
	RoleId   uuid.UUID `json:"roleId"`
	// Value grants the role when true and revokes it when false.
	Value bool `json:"value"`
}

type SetMemberRoleResponse struct {
	LocalRoleIds []int `json:"localRoleIds"`
}

type GetPermissionsNodeRequest struct {
	RoleId     uuid.UUID             `json:"roleId"`
	TargetId   uuid.UUID             `json:"targetId"`
	TargetType permission.TargetType `json:"targetType"`
}

// PermissionsNode is a node as seen by clients. A node that does not exist is
// returned with Exists false and a zero code and mask.
type PermissionsNode struct {
	RoleId     uuid.UUID             `json:"roleId"`
	TargetId   uuid.UUID             `json:"targetId"`
	TargetType permission.TargetType `json:"targetType"`
	Code       uint64                `json:"code,string"`
	Mask       uint64                `json:"mask,string"`
	Exists     bool                  `json:"exists"`
}

type GetPermissionsNodeResponse struct {
	Node *PermissionsNode `json:"node"`
}

type SetPermissionStateRequest struct {
	ActorId  uuid.UUID `json:"actorId"`
	PlanetId uuid.UUID `json:"planetId"`
	RoleId   uuid.UUID `json:"roleId"`
	TargetId uuid.UUID `json:"targetId"`
	// TargetType is the node layout, defaulting to the target's own. A
	// category also takes chat and voice layouts, read by channels inheriting
	// from it.
	TargetType permission.TargetType `json:"targetType,omitempty"`
	// Permission is a name from the node layout, e.g. "post-messages".
	Permission string `json:"permission"`
	// State is ALLOW, DENY or UNDEFINED.
	State string `json:"state"`
}

type SetPermissionStateResponse struct {
	Node *PermissionsNode `json:"node"`
}

type CreateChannelRequest struct {
	ActorId  uuid.UUID  `json:"actorId"`
	PlanetId uuid.UUID  `json:"planetId"`
	ParentId *uuid.UUID `json:"parentId,omitempty"`
	Name     string     `json:"name"`

	Type                permission.TargetType `json:"type"`
	InheritsPermissions bool                  `json:"inheritsPermissions"`
}

type CreateChannelResponse struct {
	Channel *model.Channel `json:"channel"`
}

type GetDescendantsRequest struct {
	ChannelId uuid.UUID `json:"channelId"`
}

// GetDescendantsResponse lists the channel and its whole subtree, ordered by position.
type GetDescendantsResponse struct {
	Channels []*model.Channel `json:"channels"`
}

type GetDescendantRangeRequest struct {
	// Position is a hex value ("0x01020000") or a dotted path ("1.2").
	Position string `json:"position"`
}

type GetDescendantRangeResponse struct {
	Lower uint64 `json:"lower"`
	Upper uint64 `json:"upper"`
}

type ResolveRequest struct {
	PlanetId   uuid.UUID             `json:"planetId"`
	UserId     uuid.UUID             `json:"userId"`
	TargetId   uuid.UUID             `json:"targetId"`
	TargetType permission.TargetType `json:"targetType"`
	Permission string                `json:"permission"`
}

type ResolvePlanetRequest struct {
	PlanetId   uuid.UUID `json:"planetId"`
	UserId     uuid.UUID `json:"userId"`
	Permission string    `json:"permission"`
}

type ResolveResponse struct {
	Allowed           bool      `json:"allowed"`
	Decision          string    `json:"decision"`
	Reason            string    `json:"reason"`
	DecidingRoleId    uuid.UUID `json:"decidingRoleId"`
	EffectiveTargetId uuid.UUID `json:"effectiveTargetId"`
}

func NewResolveResponse(result permission.Result) *ResolveResponse {
	return &ResolveResponse{
		Allowed:           result.Allowed(),
		Decision:          result.Decision.String(),
		Reason:            result.Reason.String(),
		DecidingRoleId:    result.DecidingRoleId,
		EffectiveTargetId: result.EffectiveTargetId,
	}
}

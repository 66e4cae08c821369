package model

import (
	"github.com/google/uuid"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/position"
	"planet-permission-service/internal/rolebitset"
)

// DefaultRoleLocalId is the local id every planet's default role is created with.
const DefaultRoleLocalId = 0

type Planet struct {
	Id            uuid.UUID `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	OwnerId       uuid.UUID `bson:"ownerId" json:"ownerId"`
	DefaultRoleId uuid.UUID `bson:"defaultRoleId" json:"defaultRoleId"`
}

// Role codes are stored signed as neither store has an unsigned 64-bit type.
type Role struct {
	Id        uuid.UUID `bson:"_id" json:"id"`
	PlanetId  uuid.UUID `bson:"planetId" json:"planetId"`
	LocalId   int       `bson:"localId" json:"localId"`
	Name      string    `bson:"name" json:"name"`
	Authority uint32    `bson:"authority" json:"authority"`
	IsAdmin   bool      `bson:"isAdmin" json:"isAdmin"`
	IsDefault bool      `bson:"isDefault" json:"isDefault"`

	Permissions         int64 `bson:"permissions" json:"permissions"`
	ChatPermissions     int64 `bson:"chatPermissions" json:"chatPermissions"`
	CategoryPermissions int64 `bson:"categoryPermissions" json:"categoryPermissions"`
	VoicePermissions    int64 `bson:"voicePermissions" json:"voicePermissions"`
}

// NewDefaultRole builds the role every member of a new planet holds.
func NewDefaultRole(planetId uuid.UUID) *Role {
	return &Role{
		Id:                  uuid.New(),
		PlanetId:            planetId,
		LocalId:             DefaultRoleLocalId,
		Name:                "everyone",
		IsDefault:           true,
		Permissions:         int64(permission.PlanetDefaultCode),
		ChatPermissions:     int64(permission.DefaultCode(permission.TargetChatChannel)),
		CategoryPermissions: int64(permission.DefaultCode(permission.TargetCategory)),
		VoicePermissions:    int64(permission.DefaultCode(permission.TargetVoiceChannel)),
	}
}

func (r *Role) ToResolver() *permission.Role {
	return &permission.Role{
		Id:                  r.Id,
		LocalId:             r.LocalId,
		Authority:           r.Authority,
		IsAdmin:             r.IsAdmin,
		Permissions:         uint64(r.Permissions),
		ChatPermissions:     uint64(r.ChatPermissions),
		CategoryPermissions: uint64(r.CategoryPermissions),
		VoicePermissions:    uint64(r.VoicePermissions),
	}
}

// Community builds the resolver's view of a planet from its roles.
func (p *Planet) Community(roles []*Role) *permission.Community {
	resolverRoles := make([]*permission.Role, len(roles))
	for i, r := range roles {
		resolverRoles[i] = r.ToResolver()
	}
	return permission.NewCommunity(p.OwnerId, p.DefaultRoleId, resolverRoles)
}

// Member stores its role bitset as four words so a single word can be
// updated atomically in place.
type Member struct {
	Id       uuid.UUID                   `bson:"_id" json:"id"`
	PlanetId uuid.UUID                   `bson:"planetId" json:"planetId"`
	UserId   uuid.UUID                   `bson:"userId" json:"userId"`
	Roles    [rolebitset.WordCount]int64 `bson:"roles" json:"roles"`
}

func NewMember(planetId uuid.UUID, userId uuid.UUID) *Member {
	return &Member{
		Id:       uuid.New(),
		PlanetId: planetId,
		UserId:   userId,
		Roles:    rolebitset.Default.Words(),
	}
}

func (m *Member) RoleBitset() rolebitset.RoleBitset {
	return rolebitset.FromWords(m.Roles)
}

func (m *Member) ToResolver() *permission.Member {
	return &permission.Member{UserId: m.UserId, Roles: m.RoleBitset()}
}

// Channel is a chat channel, voice channel or category. ParentId is uuid.Nil
// for top-level channels.
type Channel struct {
	Id                  uuid.UUID             `bson:"_id" json:"id"`
	PlanetId            uuid.UUID             `bson:"planetId" json:"planetId"`
	ParentId            uuid.UUID             `bson:"parentId" json:"parentId"`
	Name                string                `bson:"name" json:"name"`
	Type                permission.TargetType `bson:"type" json:"type"`
	Position            int64                 `bson:"position" json:"position"`
	InheritsPermissions bool                  `bson:"inheritsPermissions" json:"inheritsPermissions"`
}

func (c *Channel) GetPosition() position.Position {
	return position.Position(uint32(c.Position))
}

func (c *Channel) ToTarget() permission.Target {
	return permission.Target{
		Id:                  c.Id,
		Type:                c.Type,
		ParentId:            c.ParentId,
		InheritsPermissions: c.InheritsPermissions,
	}
}

type PermissionsNode struct {
	Id         uuid.UUID             `bson:"_id" json:"id"`
	PlanetId   uuid.UUID             `bson:"planetId" json:"planetId"`
	RoleId     uuid.UUID             `bson:"roleId" json:"roleId"`
	TargetId   uuid.UUID             `bson:"targetId" json:"targetId"`
	TargetType permission.TargetType `bson:"targetType" json:"targetType"`
	Code       int64                 `bson:"code" json:"code"`
	Mask       int64                 `bson:"mask" json:"mask"`
}

func (n *PermissionsNode) ToNode() permission.Node {
	return permission.Node{Code: uint64(n.Code), Mask: uint64(n.Mask), TargetType: n.TargetType}
}

func (n *PermissionsNode) Key() permission.NodeKey {
	return permission.NodeKey{RoleId: n.RoleId, TargetId: n.TargetId, TargetType: n.TargetType}
}

// ApplyNode copies a node's code and mask onto the stored record.
func (n *PermissionsNode) ApplyNode(node permission.Node) {
	n.Code = int64(node.Code)
	n.Mask = int64(node.Mask)
}

// NodeSet indexes stored nodes for the resolver.
func NodeSet(nodes []*PermissionsNode) permission.NodeSet {
	set := make(permission.NodeSet, len(nodes))
	for _, n := range nodes {
		set[n.Key()] = n.ToNode()
	}
	return set
}

package permission

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"planet-permission-service/internal/rolebitset"
)

// Role is the resolver's view of a planet role.
type Role struct {
	Id        uuid.UUID
	LocalId   int
	Authority uint32
	IsAdmin   bool

	// Permissions is the planet-wide code.
	Permissions         uint64
	ChatPermissions     uint64
	CategoryPermissions uint64
	VoicePermissions    uint64
}

// DefaultCode returns the role's fallback code for a target layout.
func (r *Role) DefaultCode(t TargetType) uint64 {
	switch t {
	case TargetChatChannel:
		return r.ChatPermissions
	case TargetCategory:
		return r.CategoryPermissions
	case TargetVoiceChannel:
		return r.VoicePermissions
	default:
		return 0
	}
}

// Community is a planet's ownership and role table.
type Community struct {
	OwnerId       uuid.UUID
	DefaultRoleId uuid.UUID

	roles map[int]*Role
}

func NewCommunity(ownerId uuid.UUID, defaultRoleId uuid.UUID, roles []*Role) *Community {
	c := &Community{OwnerId: ownerId, DefaultRoleId: defaultRoleId, roles: make(map[int]*Role, len(roles))}
	for _, r := range roles {
		c.roles[r.LocalId] = r
	}
	return c
}

func (c *Community) Role(localId int) (*Role, bool) {
	r, ok := c.roles[localId]
	return r, ok
}

func (c *Community) DefaultRole() (*Role, bool) {
	for _, r := range c.roles {
		if r.Id == c.DefaultRoleId {
			return r, true
		}
	}
	return nil, false
}

// MemberRoles returns the member's roles in voting order: highest authority
// first, ties broken by lower local id, with the default role last whether or
// not its bit is set. Local ids with no matching role are returned separately.
func (c *Community) MemberRoles(held rolebitset.RoleBitset) (ordered []*Role, unknown []int) {
	var defaultRole *Role
	for id := range held.RoleIds() {
		r, ok := c.roles[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		if r.Id == c.DefaultRoleId {
			defaultRole = r
			continue
		}
		ordered = append(ordered, r)
	}

	slices.SortStableFunc(ordered, func(a, b *Role) int {
		if a.Authority != b.Authority {
			return cmp.Compare(b.Authority, a.Authority)
		}
		return cmp.Compare(a.LocalId, b.LocalId)
	})

	if defaultRole == nil {
		defaultRole, _ = c.DefaultRole()
	}
	if defaultRole != nil {
		ordered = append(ordered, defaultRole)
	}
	return ordered, unknown
}

// Authority is the member's highest role authority. The owner outranks every role.
func (c *Community) Authority(member *Member) uint32 {
	if member.UserId == c.OwnerId {
		return ^uint32(0)
	}
	var highest uint32
	roles, _ := c.MemberRoles(member.Roles)
	for _, r := range roles {
		highest = max(highest, r.Authority)
	}
	return highest
}

type Member struct {
	UserId uuid.UUID
	Roles  rolebitset.RoleBitset
}

// Target is a permission-bearing channel or category.
type Target struct {
	Id                  uuid.UUID
	Type                TargetType
	ParentId            uuid.UUID
	InheritsPermissions bool
}

// Accepts reports whether nodes of the given layout can be set on the target.
// Categories hold nodes for their own layout and for every channel layout, so
// that inheriting channels have something to inherit.
func (t Target) Accepts(layout TargetType) bool {
	if t.Type == TargetCategory {
		return layout.Valid()
	}
	return t.Type == layout
}

type TargetLookup interface {
	LookupTarget(id uuid.UUID) (Target, bool)
}

// TargetSet is an in-memory TargetLookup.
type TargetSet map[uuid.UUID]Target

func (s TargetSet) LookupTarget(id uuid.UUID) (Target, bool) {
	t, ok := s[id]
	return t, ok
}

func (s TargetSet) Add(targets ...Target) TargetSet {
	for _, t := range targets {
		s[t.Id] = t
	}
	return s
}

type NodeKey struct {
	RoleId     uuid.UUID
	TargetId   uuid.UUID
	TargetType TargetType
}

type NodeLookup interface {
	LookupNode(key NodeKey) (Node, bool)
}

// NodeSet is an in-memory NodeLookup.
type NodeSet map[NodeKey]Node

func (s NodeSet) LookupNode(key NodeKey) (Node, bool) {
	n, ok := s[key]
	return n, ok
}

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

type Reason int

const (
	ReasonNoDecision Reason = iota
	ReasonOwner
	ReasonAdmin
	ReasonNode
	ReasonDefaultRole
	ReasonImplicit
	ReasonRoleCode
	ReasonUnknownTarget
	ReasonUnknownMember
	ReasonTypeMismatch
)

var reasonNames = map[Reason]string{
	ReasonNoDecision:    "NO_DECISION",
	ReasonOwner:         "OWNER",
	ReasonAdmin:         "ADMIN",
	ReasonNode:          "NODE",
	ReasonDefaultRole:   "DEFAULT_ROLE",
	ReasonImplicit:      "IMPLICIT",
	ReasonRoleCode:      "ROLE_CODE",
	ReasonUnknownTarget: "UNKNOWN_TARGET",
	ReasonUnknownMember: "UNKNOWN_MEMBER",
	ReasonTypeMismatch:  "TYPE_MISMATCH",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("REASON(%d)", int(r))
}

// Result explains a decision. DecidingRoleId is uuid.Nil when no role voted.
type Result struct {
	Decision          Decision
	Reason            Reason
	DecidingRoleId    uuid.UUID
	EffectiveTargetId uuid.UUID
}

func (r Result) Allowed() bool {
	return r.Decision == Allow
}

type Request struct {
	Community  *Community
	Member     *Member
	Permission Permission
	TargetId   uuid.UUID

	Targets TargetLookup
	Nodes   NodeLookup
}

// Resolver decides permissions from data already loaded by the caller. It
// never touches storage, so a Request is resolved the same way every time.
type Resolver struct {
	logger *zap.SugaredLogger
}

func NewResolver(logger *zap.SugaredLogger) *Resolver {
	return &Resolver{logger: logger}
}

// EffectiveTarget follows one level of inheritance: a non-category target
// that inherits and has a parent is decided by that parent's nodes.
func EffectiveTarget(targets TargetLookup, targetId uuid.UUID) (Target, bool) {
	target, ok := targets.LookupTarget(targetId)
	if !ok {
		return Target{}, false
	}
	if target.Type == TargetCategory || !target.InheritsPermissions || target.ParentId == uuid.Nil {
		return target, true
	}

	parent, ok := targets.LookupTarget(target.ParentId)
	if !ok {
		return Target{}, false
	}
	return parent, true
}

func (r *Resolver) Resolve(req Request) Result {
	if req.Community == nil || req.Member == nil {
		r.logger.Warnw("resolving permission for unknown member", "targetId", req.TargetId)
		return Result{Decision: Deny, Reason: ReasonUnknownMember}
	}

	original, ok := req.Targets.LookupTarget(req.TargetId)
	if !ok {
		r.logger.Warnw("resolving permission for unknown target", "targetId", req.TargetId,
			"userId", req.Member.UserId)
		return Result{Decision: Deny, Reason: ReasonUnknownTarget}
	}
	target, ok := EffectiveTarget(req.Targets, req.TargetId)

	if req.Member.UserId == req.Community.OwnerId {
		if !ok {
			target = original
		}
		return Result{Decision: Allow, Reason: ReasonOwner, EffectiveTargetId: target.Id}
	}

	if !original.Accepts(req.Permission.TargetType) {
		return Result{Decision: Deny, Reason: ReasonTypeMismatch, EffectiveTargetId: original.Id}
	}
	if !ok {
		r.logger.Warnw("inheriting target has unknown parent", "targetId", original.Id,
			"parentId", original.ParentId)
		return Result{Decision: Deny, Reason: ReasonUnknownTarget}
	}

	roles, unknown := req.Community.MemberRoles(req.Member.Roles)
	if len(unknown) > 0 {
		r.logger.Warnw("member holds undefined roles", "userId", req.Member.UserId, "localIds", unknown)
	}

	for _, role := range roles {
		if role.IsAdmin {
			return Result{Decision: Allow, Reason: ReasonAdmin, DecidingRoleId: role.Id, EffectiveTargetId: target.Id}
		}
	}

	for _, role := range roles {
		var state State
		node, found := req.Nodes.LookupNode(NodeKey{RoleId: role.Id, TargetId: target.Id, TargetType: req.Permission.TargetType})
		if found {
			state = node.GetState(req.Permission.Value)
		}

		if state == StateUndefined {
			if role.Id != req.Community.DefaultRoleId {
				continue
			}
			decision := Deny
			if HasPermission(role.DefaultCode(req.Permission.TargetType), req.Permission.Value) {
				decision = Allow
			}
			return Result{Decision: decision, Reason: ReasonDefaultRole, DecidingRoleId: role.Id, EffectiveTargetId: target.Id}
		}

		decision := Deny
		if state == StateAllow {
			decision = Allow
		}
		return Result{Decision: decision, Reason: ReasonNode, DecidingRoleId: role.Id, EffectiveTargetId: target.Id}
	}

	return Result{Decision: Deny, Reason: ReasonNoDecision, EffectiveTargetId: target.Id}
}

// ResolvePlanet decides a planet-wide permission. Viewing the planet is
// implicit for members, otherwise the member's role codes are ORed together.
func (r *Resolver) ResolvePlanet(community *Community, member *Member, perm PlanetPermission) Result {
	if community == nil || member == nil {
		r.logger.Warnw("resolving planet permission for unknown member", "permission", perm.Name)
		return Result{Decision: Deny, Reason: ReasonUnknownMember}
	}
	if member.UserId == community.OwnerId {
		return Result{Decision: Allow, Reason: ReasonOwner}
	}
	if perm.Value == PlanetView.Value {
		return Result{Decision: Allow, Reason: ReasonImplicit}
	}

	roles, _ := community.MemberRoles(member.Roles)
	var code uint64
	for _, role := range roles {
		if role.IsAdmin {
			return Result{Decision: Allow, Reason: ReasonAdmin, DecidingRoleId: role.Id}
		}
		code |= role.Permissions
	}

	if HasPermission(code, perm.Value) {
		return Result{Decision: Allow, Reason: ReasonRoleCode}
	}
	return Result{Decision: Deny, Reason: ReasonNoDecision}
}

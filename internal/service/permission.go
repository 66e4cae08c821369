package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"planet-permission-service/internal/api"
	"planet-permission-service/internal/cache"
	"planet-permission-service/internal/kafka/notifier"
	"planet-permission-service/internal/metrics"
	"planet-permission-service/internal/permission"
	"planet-permission-service/internal/position"
	"planet-permission-service/internal/repository"
	"planet-permission-service/internal/repository/model"
	"planet-permission-service/internal/rolebitset"
)

var tracer = otel.Tracer("planet-permission-service/service")

const createChannelAttempts = 3

type permissionService struct {
	api.UnimplementedPermissionServiceServer

	logger   *zap.SugaredLogger
	repo     repository.Repository
	cache    cache.Cache
	resolver *permission.Resolver
	notif    notifier.Notifier
	metrics  *metrics.Metrics
}

func newPermissionService(logger *zap.SugaredLogger, repo repository.Repository, c cache.Cache,
	notif notifier.Notifier, m *metrics.Metrics) *permissionService {

	return &permissionService{
		logger:   logger,
		repo:     repo,
		cache:    c,
		resolver: permission.NewResolver(logger),
		notif:    notif,
		metrics:  m,
	}
}

func (s *permissionService) CreatePlanet(ctx context.Context, req *api.CreatePlanetRequest) (*api.CreatePlanetResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newStatusError(codes.InvalidArgument, "", "planet name must not be empty")
	}
	if req.OwnerId == uuid.Nil {
		return nil, newStatusError(codes.InvalidArgument, "", "owner id must be set")
	}

	planet := &model.Planet{Id: uuid.New(), Name: name, OwnerId: req.OwnerId}
	defaultRole := model.NewDefaultRole(planet.Id)
	planet.DefaultRoleId = defaultRole.Id

	if err := s.repo.CreatePlanet(ctx, planet, defaultRole); err != nil {
		return nil, s.handleError("failed to create planet", err, api.ReasonPlanetNotFound)
	}

	owner := model.NewMember(planet.Id, planet.OwnerId)
	if err := s.repo.CreateMember(ctx, owner); err != nil {
		return nil, s.handleError("failed to create planet owner", err, api.ReasonPlanetNotFound)
	}

	if err := s.notif.RoleUpdate(ctx, defaultRole, notifier.ChangeCreate); err != nil {
		s.logger.Errorw("failed to send role update", "error", err, "roleId", defaultRole.Id)
	}

	return &api.CreatePlanetResponse{Planet: planet, DefaultRole: defaultRole, Owner: owner}, nil
}

func (s *permissionService) AddMember(ctx context.Context, req *api.AddMemberRequest) (*api.AddMemberResponse, error) {
	planet, err := s.repo.GetPlanet(ctx, req.PlanetId)
	if err != nil {
		return nil, s.handleError("failed to get planet", err, api.ReasonPlanetNotFound)
	}

	member := model.NewMember(planet.Id, req.UserId)
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, s.handleError("failed to create member", err, api.ReasonPlanetNotFound)
	}

	if err := s.notif.MemberRolesUpdate(ctx, &notifier.MemberRolesUpdateMessage{
		PlanetId:    planet.Id,
		UserId:      member.UserId,
		RoleId:      planet.DefaultRoleId,
		LocalRoleId: model.DefaultRoleLocalId,
		ChangeType:  notifier.ChangeGrant,
	}); err != nil {
		s.logger.Errorw("failed to send member roles update", "error", err, "userId", member.UserId)
	}

	return &api.AddMemberResponse{Member: member}, nil
}

func (s *permissionService) CreateRole(ctx context.Context, req *api.CreateRoleRequest) (*api.CreateRoleResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newStatusError(codes.InvalidArgument, "", "role name must not be empty")
	}

	_, _, community, err := s.loadCommunity(ctx, req.PlanetId)
	if err != nil {
		return nil, err
	}

	actor, err := s.authorizePlanet(ctx, community, req.PlanetId, req.ActorId, permission.PlanetManageRoles)
	if err != nil {
		return nil, err
	}
	if !outranks(community, actor, req.Authority) {
		return nil, newStatusError(codes.PermissionDenied, api.ReasonInsufficientAuthority,
			"role authority must be below your own")
	}

	role := &model.Role{
		Id:                  uuid.New(),
		PlanetId:            req.PlanetId,
		Name:                name,
		Authority:           req.Authority,
		IsAdmin:             req.IsAdmin,
		Permissions:         int64(req.Permissions),
		ChatPermissions:     int64(req.ChatPermissions),
		CategoryPermissions: int64(req.CategoryPermissions),
		VoicePermissions:    int64(req.VoicePermissions),
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, s.handleError("failed to create role", err, api.ReasonPlanetNotFound)
	}

	if err := s.notif.RoleUpdate(ctx, role, notifier.ChangeCreate); err != nil {
		s.logger.Errorw("failed to send role update", "error", err, "roleId", role.Id)
	}

	return &api.CreateRoleResponse{Role: role}, nil
}

func (s *permissionService) GetRoles(ctx context.Context, req *api.GetRolesRequest) (*api.GetRolesResponse, error) {
	roles, err := s.repo.GetRoles(ctx, req.PlanetId)
	if err != nil {
		return nil, s.handleError("failed to get roles", err, api.ReasonPlanetNotFound)
	}

	return &api.GetRolesResponse{Roles: roles}, nil
}

func (s *permissionService) GetMemberRoles(ctx context.Context, req *api.GetMemberRolesRequest) (*api.GetMemberRolesResponse, error) {
	member, err := s.loadMember(ctx, req.PlanetId, req.UserId)
	if err != nil {
		return nil, s.handleError("failed to get member", err, api.ReasonMemberNotFound)
	}

	roles, err := s.repo.GetRoles(ctx, req.PlanetId)
	if err != nil {
		return nil, s.handleError("failed to get roles", err, api.ReasonPlanetNotFound)
	}

	resp := &api.GetMemberRolesResponse{
		LocalRoleIds: slices.Collect(member.Roles.RoleIds()),
		RoleIds:      make([]uuid.UUID, 0, member.Roles.Count()),
	}
	for _, role := range roles {
		if member.Roles.HasRole(role.LocalId) {
			resp.RoleIds = append(resp.RoleIds, role.Id)
		}
	}
	return resp, nil
}

func (s *permissionService) SetMemberRole(ctx context.Context, req *api.SetMemberRoleRequest) (*api.SetMemberRoleResponse, error) {
	planet, roles, community, err := s.loadCommunity(ctx, req.PlanetId)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(roles, func(r *model.Role) bool { return r.Id == req.RoleId })
	if idx < 0 {
		return nil, newStatusError(codes.NotFound, api.ReasonRoleNotFound, "role not found")
	}
	role := roles[idx]
	if role.Id == planet.DefaultRoleId && !req.Value {
		return nil, newStatusError(codes.InvalidArgument, api.ReasonDefaultRole, "the default role cannot be revoked")
	}

	actor, err := s.authorizePlanet(ctx, community, req.PlanetId, req.ActorId, permission.PlanetManageRoles)
	if err != nil {
		return nil, err
	}
	if !outranks(community, actor, role.Authority) {
		return nil, newStatusError(codes.PermissionDenied, api.ReasonInsufficientAuthority,
			"role authority must be below your own")
	}

	bitset, err := s.repo.SetMemberRole(ctx, req.PlanetId, req.UserId, role.LocalId, req.Value)
	if err != nil {
		return nil, s.handleError("failed to set member role", err, api.ReasonMemberNotFound)
	}

	if err := s.cache.InvalidateMemberRoles(ctx, req.PlanetId, req.UserId); err != nil {
		s.logger.Warnw("failed to invalidate member roles", "error", err, "userId", req.UserId)
	}

	changeType := notifier.ChangeGrant
	if !req.Value {
		changeType = notifier.ChangeRevoke
	}
	if err := s.notif.MemberRolesUpdate(ctx, &notifier.MemberRolesUpdateMessage{
		PlanetId:    req.PlanetId,
		UserId:      req.UserId,
		RoleId:      role.Id,
		LocalRoleId: role.LocalId,
		ChangeType:  changeType,
	}); err != nil {
		s.logger.Errorw("failed to send member roles update", "error", err, "userId", req.UserId)
	}

	return &api.SetMemberRoleResponse{LocalRoleIds: slices.Collect(bitset.RoleIds())}, nil
}

func (s *permissionService) GetPermissionsNode(ctx context.Context, req *api.GetPermissionsNodeRequest) (*api.GetPermissionsNodeResponse, error) {
	if !req.TargetType.Valid() {
		return nil, newStatusError(codes.InvalidArgument, api.ReasonUnknownTargetType, "unknown target type")
	}

	resp := &api.PermissionsNode{RoleId: req.RoleId, TargetId: req.TargetId, TargetType: req.TargetType}

	node, err := s.repo.GetNode(ctx, req.RoleId, req.TargetId, req.TargetType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &api.GetPermissionsNodeResponse{Node: resp}, nil
		}
		return nil, s.handleError("failed to get permissions node", err, "")
	}

	resp.Code = uint64(node.Code)
	resp.Mask = uint64(node.Mask)
	resp.Exists = true
	return &api.GetPermissionsNodeResponse{Node: resp}, nil
}

// SetPermissionState changes one permission on a role's node for a target.
// A node left with nothing decided is deleted.
func (s *permissionService) SetPermissionState(ctx context.Context, req *api.SetPermissionStateRequest) (*api.SetPermissionStateResponse, error) {
	state, err := permission.ParseState(req.State)
	if err != nil {
		return nil, newStatusError(codes.InvalidArgument, "", err.Error())
	}

	_, roles, community, err := s.loadCommunity(ctx, req.PlanetId)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(roles, func(r *model.Role) bool { return r.Id == req.RoleId }) {
		return nil, newStatusError(codes.NotFound, api.ReasonRoleNotFound, "role not found")
	}

	targets, err := s.loadTargets(ctx, req.PlanetId, req.TargetId)
	if err != nil {
		return nil, s.handleError("failed to get channel", err, api.ReasonChannelNotFound)
	}
	target, ok := targets.LookupTarget(req.TargetId)
	if !ok {
		return nil, newStatusError(codes.NotFound, api.ReasonChannelNotFound, "channel not found")
	}

	layout := target.Type
	if req.TargetType != 0 {
		if !target.Accepts(req.TargetType) {
			return nil, newStatusError(codes.InvalidArgument, api.ReasonUnknownTargetType,
				fmt.Sprintf("a %s cannot hold %s nodes", target.Type, req.TargetType))
		}
		layout = req.TargetType
	}

	perm, ok := permission.Lookup(layout, req.Permission)
	if !ok {
		return nil, newStatusError(codes.InvalidArgument, api.ReasonUnknownPermission,
			fmt.Sprintf("unknown %s permission %q", layout, req.Permission))
	}

	result, err := s.resolveChannel(ctx, community, req.PlanetId, req.ActorId, targets, req.TargetId,
		permission.ManagePermissionsFor(target.Type))
	if err != nil {
		return nil, s.handleError("failed to resolve actor permission", err, "")
	}
	if !result.Allowed() {
		return nil, newStatusError(codes.PermissionDenied, api.ReasonInsufficientPermission, "insufficient permission")
	}

	stored, err := s.repo.GetNode(ctx, req.RoleId, req.TargetId, layout)
	changeType := notifier.ChangeModify
	switch {
	case errors.Is(err, repository.ErrNotFound):
		stored = &model.PermissionsNode{
			Id:         uuid.New(),
			PlanetId:   req.PlanetId,
			RoleId:     req.RoleId,
			TargetId:   req.TargetId,
			TargetType: layout,
		}
		changeType = notifier.ChangeCreate
	case err != nil:
		return nil, s.handleError("failed to get permissions node", err, "")
	}

	node := stored.ToNode().SetState(perm.Value, state)
	stored.ApplyNode(node)

	if node.IsEmpty() {
		changeType = notifier.ChangeDelete
		err = s.repo.DeleteNode(ctx, req.RoleId, req.TargetId, layout)
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	} else {
		err = s.repo.UpsertNode(ctx, stored)
	}
	if err != nil {
		return nil, s.handleError("failed to save permissions node", err, "")
	}

	if err := s.cache.InvalidateNode(ctx, stored.Key()); err != nil {
		s.logger.Warnw("failed to invalidate permissions node", "error", err, "roleId", req.RoleId)
	}

	if err := s.notif.PermissionsNodeUpdate(ctx, &notifier.PermissionsNodeUpdateMessage{
		PlanetId:   req.PlanetId,
		RoleId:     req.RoleId,
		TargetId:   req.TargetId,
		TargetType: layout,
		Code:       node.Code,
		Mask:       node.Mask,
		ChangeType: changeType,
	}); err != nil {
		s.logger.Errorw("failed to send permissions node update", "error", err, "roleId", req.RoleId)
	}

	return &api.SetPermissionStateResponse{Node: &api.PermissionsNode{
		RoleId:     req.RoleId,
		TargetId:   req.TargetId,
		TargetType: layout,
		Code:       node.Code,
		Mask:       node.Mask,
		Exists:     !node.IsEmpty(),
	}}, nil
}

// CreateChannel places the channel after its last sibling. Two concurrent
// creations under one parent can pick the same position, in which case the
// loser retries.
func (s *permissionService) CreateChannel(ctx context.Context, req *api.CreateChannelRequest) (*api.CreateChannelResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newStatusError(codes.InvalidArgument, "", "channel name must not be empty")
	}
	if !req.Type.Valid() {
		return nil, newStatusError(codes.InvalidArgument, api.ReasonUnknownTargetType, "unknown channel type")
	}

	_, _, community, err := s.loadCommunity(ctx, req.PlanetId)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizePlanet(ctx, community, req.PlanetId, req.ActorId, permission.PlanetCreateChannels); err != nil {
		return nil, err
	}

	var parent *model.Channel
	if req.ParentId != nil && *req.ParentId != uuid.Nil {
		parent, err = s.repo.GetChannel(ctx, *req.ParentId)
		if err != nil {
			return nil, s.handleError("failed to get parent channel", err, api.ReasonChannelNotFound)
		}
		if parent.PlanetId != req.PlanetId {
			return nil, newStatusError(codes.NotFound, api.ReasonChannelNotFound, "parent channel not found")
		}
		if parent.Type != permission.TargetCategory {
			return nil, newStatusError(codes.InvalidArgument, "", "channels can only be nested in categories")
		}
	}

	channel := &model.Channel{
		Id:                  uuid.New(),
		PlanetId:            req.PlanetId,
		Name:                name,
		Type:                req.Type,
		InheritsPermissions: req.InheritsPermissions && parent != nil,
	}
	if parent != nil {
		channel.ParentId = parent.Id
	}

	for attempt := 1; ; attempt++ {
		pos, err := s.nextPosition(ctx, req.PlanetId, parent)
		if err != nil {
			return nil, s.handleError("failed to assign channel position", err, "")
		}
		channel.Position = int64(pos)

		err = s.repo.CreateChannel(ctx, channel)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrAlreadyExists) || attempt >= createChannelAttempts {
			return nil, s.handleError("failed to create channel", err, "")
		}
		s.logger.Debugw("channel position taken, retrying", "position", pos, "attempt", attempt)
	}

	if err := s.notif.ChannelUpdate(ctx, channel, notifier.ChangeCreate); err != nil {
		s.logger.Errorw("failed to send channel update", "error", err, "channelId", channel.Id)
	}

	return &api.CreateChannelResponse{Channel: channel}, nil
}

// nextPosition returns the position after the highest existing direct child
// of parent, or of the planet root when parent is nil.
func (s *permissionService) nextPosition(ctx context.Context, planetId uuid.UUID, parent *model.Channel) (position.Position, error) {
	depth := 0
	lower, upper := uint64(0), uint64(1)<<32
	if parent != nil {
		parentDepth, err := position.Depth(parent.GetPosition())
		if err != nil {
			return 0, err
		}
		if parentDepth >= position.MaxDepth {
			return 0, fmt.Errorf("%w: parent %s is at the deepest level", position.ErrDepthExceeded, parent.GetPosition())
		}
		depth = parentDepth + 1
		if lower, upper, err = position.DescendantBounds(parent.GetPosition()); err != nil {
			return 0, err
		}
	}

	channels, err := s.repo.GetChannelsInRange(ctx, planetId, lower, upper)
	if err != nil {
		return 0, err
	}

	last := 0
	for _, c := range channels {
		d, err := position.Depth(c.GetPosition())
		if err != nil {
			s.logger.Errorw("stored channel has malformed position", "channelId", c.Id, "position", c.GetPosition().Hex())
			return 0, err
		}
		if d != depth {
			continue
		}
		local, _ := position.LocalPosition(c.GetPosition())
		last = max(last, local)
	}

	order := last + 1
	if order > position.MaxLocalPosition {
		return 0, repository.ErrSiblingLimitReached
	}
	if parent == nil {
		return position.TopLevel(order)
	}
	return position.AppendRelativePosition(parent.GetPosition(), order)
}

func (s *permissionService) GetDescendants(ctx context.Context, req *api.GetDescendantsRequest) (*api.GetDescendantsResponse, error) {
	channel, err := s.repo.GetChannel(ctx, req.ChannelId)
	if err != nil {
		return nil, s.handleError("failed to get channel", err, api.ReasonChannelNotFound)
	}

	lower, upper, err := position.DescendantBounds(channel.GetPosition())
	if err != nil {
		s.logger.Errorw("stored channel has malformed position", "channelId", channel.Id,
			"position", channel.GetPosition().Hex())
		return nil, s.handleError("failed to compute descendant range", err, "")
	}

	channels, err := s.repo.GetChannelsInRange(ctx, channel.PlanetId, lower, upper)
	if err != nil {
		return nil, s.handleError("failed to get descendants", err, "")
	}

	return &api.GetDescendantsResponse{Channels: channels}, nil
}

func (s *permissionService) GetDescendantRange(_ context.Context, req *api.GetDescendantRangeRequest) (*api.GetDescendantRangeResponse, error) {
	pos, err := position.Parse(req.Position)
	if err != nil {
		return nil, positionArgumentError(err)
	}

	lower, upper, err := position.DescendantBounds(pos)
	if err != nil {
		return nil, positionArgumentError(err)
	}

	return &api.GetDescendantRangeResponse{Lower: lower, Upper: upper}, nil
}

func (s *permissionService) Resolve(ctx context.Context, req *api.ResolveRequest) (*api.ResolveResponse, error) {
	ctx, span := tracer.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("planet.id", req.PlanetId.String()),
			attribute.String("target.id", req.TargetId.String()),
			attribute.String("permission", req.Permission),
		),
	)
	defer span.End()
	started := time.Now()

	perm, ok := permission.Lookup(req.TargetType, req.Permission)
	if !ok {
		span.SetStatus(otelcodes.Error, "unknown permission")
		return nil, newStatusError(codes.InvalidArgument, api.ReasonUnknownPermission,
			fmt.Sprintf("unknown %s permission %q", req.TargetType, req.Permission))
	}

	_, _, community, err := s.loadCommunity(ctx, req.PlanetId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "failed to load planet")
		return nil, err
	}

	targets, err := s.loadTargets(ctx, req.PlanetId, req.TargetId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "failed to load target")
		return nil, s.handleError("failed to get channel", err, "")
	}

	result, err := s.resolveChannel(ctx, community, req.PlanetId, req.UserId, targets, req.TargetId, perm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "failed to resolve")
		return nil, s.handleError("failed to resolve permission", err, "")
	}

	s.metrics.RecordDecision("channel", result, started)
	span.SetAttributes(
		attribute.String("decision", result.Decision.String()),
		attribute.String("reason", result.Reason.String()),
	)
	return api.NewResolveResponse(result), nil
}

func (s *permissionService) ResolvePlanet(ctx context.Context, req *api.ResolvePlanetRequest) (*api.ResolveResponse, error) {
	ctx, span := tracer.Start(ctx, "ResolvePlanet",
		trace.WithAttributes(
			attribute.String("planet.id", req.PlanetId.String()),
			attribute.String("permission", req.Permission),
		),
	)
	defer span.End()
	started := time.Now()

	perm, ok := permission.LookupPlanet(req.Permission)
	if !ok {
		span.SetStatus(otelcodes.Error, "unknown permission")
		return nil, newStatusError(codes.InvalidArgument, api.ReasonUnknownPermission,
			fmt.Sprintf("unknown planet permission %q", req.Permission))
	}

	_, _, community, err := s.loadCommunity(ctx, req.PlanetId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "failed to load planet")
		return nil, err
	}

	result, err := s.resolvePlanet(ctx, community, req.PlanetId, req.UserId, perm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "failed to resolve")
		return nil, s.handleError("failed to resolve planet permission", err, "")
	}

	s.metrics.RecordDecision("planet", result, started)
	span.SetAttributes(
		attribute.String("decision", result.Decision.String()),
		attribute.String("reason", result.Reason.String()),
	)
	return api.NewResolveResponse(result), nil
}

// loadCommunity returns a status error, ready to be returned to the caller.
func (s *permissionService) loadCommunity(ctx context.Context, planetId uuid.UUID) (*model.Planet, []*model.Role, *permission.Community, error) {
	planet, err := s.repo.GetPlanet(ctx, planetId)
	if err != nil {
		return nil, nil, nil, s.handleError("failed to get planet", err, api.ReasonPlanetNotFound)
	}

	roles, err := s.repo.GetRoles(ctx, planetId)
	if err != nil {
		return nil, nil, nil, s.handleError("failed to get roles", err, api.ReasonPlanetNotFound)
	}

	return planet, roles, planet.Community(roles), nil
}

// loadMember reads the member's roles through the cache. The owner always
// resolves as a member, even without a stored membership.
func (s *permissionService) loadMember(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (*permission.Member, error) {
	roles, err := s.cache.GetMemberRoles(ctx, planetId, userId)
	if err == nil {
		s.metrics.RecordCache("member", true)
		return &permission.Member{UserId: userId, Roles: roles}, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warnw("failed to read member roles from cache", "error", err, "userId", userId)
	}
	s.metrics.RecordCache("member", false)

	generation, genErr := s.cache.Generation(ctx)
	member, err := s.repo.GetMember(ctx, planetId, userId)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		s.logger.Warnw("failed to read cache generation", "error", genErr)
	} else if err := s.cache.FillMemberRoles(ctx, generation, planetId, userId, member.RoleBitset()); err != nil {
		s.logger.Warnw("failed to cache member roles", "error", err, "userId", userId)
	}
	return member.ToResolver(), nil
}

func (s *permissionService) loadResolverMember(ctx context.Context, community *permission.Community,
	planetId uuid.UUID, userId uuid.UUID) (*permission.Member, error) {

	member, err := s.loadMember(ctx, planetId, userId)
	if errors.Is(err, repository.ErrNotFound) {
		if userId == community.OwnerId {
			return &permission.Member{UserId: userId, Roles: rolebitset.Default}, nil
		}
		return nil, nil
	}
	return member, err
}

// loadTargets loads the target and, when it inherits, its parent. Targets
// outside the planet are left out so that they resolve as unknown.
func (s *permissionService) loadTargets(ctx context.Context, planetId uuid.UUID, targetId uuid.UUID) (permission.TargetSet, error) {
	targets := permission.TargetSet{}

	channel, err := s.repo.GetChannel(ctx, targetId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return targets, nil
		}
		return nil, err
	}
	if channel.PlanetId != planetId {
		return targets, nil
	}

	target := channel.ToTarget()
	targets.Add(target)
	if target.Type == permission.TargetCategory || !target.InheritsPermissions || target.ParentId == uuid.Nil {
		return targets, nil
	}

	parent, err := s.repo.GetChannel(ctx, target.ParentId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return targets, nil
		}
		return nil, err
	}
	if parent.PlanetId == planetId {
		targets.Add(parent.ToTarget())
	}
	return targets, nil
}

// loadNodes reads the nodes of every role the member votes with on the
// effective target. Missing nodes are cached as empty nodes.
func (s *permissionService) loadNodes(ctx context.Context, community *permission.Community, member *permission.Member,
	targets permission.TargetSet, targetId uuid.UUID, targetType permission.TargetType) (permission.NodeSet, error) {

	nodes := permission.NodeSet{}
	target, ok := permission.EffectiveTarget(targets, targetId)
	if !ok {
		return nodes, nil
	}

	roles, _ := community.MemberRoles(member.Roles)
	var missing []uuid.UUID
	for _, role := range roles {
		key := permission.NodeKey{RoleId: role.Id, TargetId: target.Id, TargetType: targetType}
		node, err := s.cache.GetNode(ctx, key)
		if err == nil {
			s.metrics.RecordCache("node", true)
			nodes[key] = node
			continue
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warnw("failed to read permissions node from cache", "error", err, "roleId", role.Id)
		}
		s.metrics.RecordCache("node", false)
		missing = append(missing, role.Id)
	}
	if len(missing) == 0 {
		return nodes, nil
	}

	generation, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warnw("failed to read cache generation", "error", genErr)
	}

	stored, err := s.repo.GetNodes(ctx, target.Id, targetType, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions nodes: %w", err)
	}
	found := model.NodeSet(stored)

	for _, roleId := range missing {
		key := permission.NodeKey{RoleId: roleId, TargetId: target.Id, TargetType: targetType}
		node, ok := found[key]
		if !ok {
			node = permission.Node{TargetType: targetType}
		}
		nodes[key] = node

		if genErr != nil {
			continue
		}
		if err := s.cache.FillNode(ctx, generation, key, node); err != nil {
			s.logger.Warnw("failed to cache permissions node", "error", err, "roleId", roleId)
		}
	}
	return nodes, nil
}

func (s *permissionService) resolveChannel(ctx context.Context, community *permission.Community, planetId uuid.UUID,
	userId uuid.UUID, targets permission.TargetSet, targetId uuid.UUID, perm permission.Permission) (permission.Result, error) {

	member, err := s.loadResolverMember(ctx, community, planetId, userId)
	if err != nil {
		return permission.Result{}, err
	}

	nodes := permission.NodeSet{}
	if member != nil && member.UserId != community.OwnerId {
		if nodes, err = s.loadNodes(ctx, community, member, targets, targetId, perm.TargetType); err != nil {
			return permission.Result{}, err
		}
	}

	return s.resolver.Resolve(permission.Request{
		Community:  community,
		Member:     member,
		Permission: perm,
		TargetId:   targetId,
		Targets:    targets,
		Nodes:      nodes,
	}), nil
}

func (s *permissionService) resolvePlanet(ctx context.Context, community *permission.Community, planetId uuid.UUID,
	userId uuid.UUID, perm permission.PlanetPermission) (permission.Result, error) {

	member, err := s.loadResolverMember(ctx, community, planetId, userId)
	if err != nil {
		return permission.Result{}, err
	}
	return s.resolver.ResolvePlanet(community, member, perm), nil
}

// authorizePlanet returns the actor when they hold perm, and a
// PermissionDenied status otherwise.
func (s *permissionService) authorizePlanet(ctx context.Context, community *permission.Community, planetId uuid.UUID,
	actorId uuid.UUID, perm permission.PlanetPermission) (*permission.Member, error) {

	actor, err := s.loadResolverMember(ctx, community, planetId, actorId)
	if err != nil {
		return nil, s.handleError("failed to get actor", err, "")
	}

	result := s.resolver.ResolvePlanet(community, actor, perm)
	if !result.Allowed() {
		return nil, newStatusError(codes.PermissionDenied, api.ReasonInsufficientPermission, "insufficient permission")
	}
	return actor, nil
}

// outranks reports whether the actor may manage a role with the given
// authority. The owner outranks every role.
func outranks(community *permission.Community, actor *permission.Member, authority uint32) bool {
	if actor.UserId == community.OwnerId {
		return true
	}
	return community.Authority(actor) > authority
}

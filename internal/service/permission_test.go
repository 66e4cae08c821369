package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
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

// testPlanet is an in-memory planet served to the mock repository's reads.
type testPlanet struct {
	planet *model.Planet

	everyone  *model.Role
	moderator *model.Role
	helper    *model.Role

	ownerId uuid.UUID
	modId   uuid.UUID
	userId  uuid.UUID

	category *model.Channel
	general  *model.Channel
	nested   *model.Channel

	members  map[uuid.UUID]*model.Member
	channels map[uuid.UUID]*model.Channel
	nodes    []*model.PermissionsNode
}

func newTestPlanet() *testPlanet {
	p := &testPlanet{
		planet:  &model.Planet{Id: uuid.New(), Name: "test", OwnerId: uuid.New()},
		modId:   uuid.New(),
		userId:  uuid.New(),
		members: make(map[uuid.UUID]*model.Member),
	}
	p.ownerId = p.planet.OwnerId

	p.everyone = model.NewDefaultRole(p.planet.Id)
	p.planet.DefaultRoleId = p.everyone.Id
	p.moderator = &model.Role{Id: uuid.New(), PlanetId: p.planet.Id, LocalId: 1, Name: "moderator", Authority: 10,
		Permissions: int64(permission.CreateCode(permission.PlanetManageRoles, permission.PlanetCreateChannels))}
	p.helper = &model.Role{Id: uuid.New(), PlanetId: p.planet.Id, LocalId: 2, Name: "helper", Authority: 5}

	for userId, roles := range map[uuid.UUID]rolebitset.RoleBitset{
		p.ownerId: rolebitset.Default,
		p.modId:   rolebitset.FromRoleIds(0, 1),
		p.userId:  rolebitset.Default,
	} {
		p.members[userId] = &model.Member{Id: uuid.New(), PlanetId: p.planet.Id, UserId: userId, Roles: roles.Words()}
	}

	p.category = &model.Channel{Id: uuid.New(), PlanetId: p.planet.Id, Name: "category",
		Type: permission.TargetCategory, Position: 0x01000000}
	p.general = &model.Channel{Id: uuid.New(), PlanetId: p.planet.Id, Name: "general",
		Type: permission.TargetChatChannel, Position: 0x02000000}
	p.nested = &model.Channel{Id: uuid.New(), PlanetId: p.planet.Id, ParentId: p.category.Id, Name: "nested",
		Type: permission.TargetChatChannel, Position: 0x01010000, InheritsPermissions: true}
	p.channels = map[uuid.UUID]*model.Channel{
		p.category.Id: p.category,
		p.general.Id:  p.general,
		p.nested.Id:   p.nested,
	}

	return p
}

func (p *testPlanet) roles() []*model.Role {
	return []*model.Role{p.everyone, p.moderator, p.helper}
}

func (p *testPlanet) node(role *model.Role, target *model.Channel, targetType permission.TargetType,
	perm permission.Permission, state permission.State) *model.PermissionsNode {

	n := &model.PermissionsNode{Id: uuid.New(), PlanetId: p.planet.Id, RoleId: role.Id, TargetId: target.Id,
		TargetType: targetType}
	n.ApplyNode(n.ToNode().SetState(perm.Value, state))
	return n
}

// stub serves every read from the planet. Writes must be expected by each test.
func (p *testPlanet) stub(repo *repository.MockRepository) {
	p.stubWithoutMembers(repo)
	repo.EXPECT().GetMember(gomock.Any(), p.planet.Id, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, userId uuid.UUID) (*model.Member, error) {
			if m, ok := p.members[userId]; ok {
				return m, nil
			}
			return nil, repository.ErrNotFound
		}).AnyTimes()
}

func (p *testPlanet) stubWithoutMembers(repo *repository.MockRepository) {
	repo.EXPECT().GetPlanet(gomock.Any(), p.planet.Id).Return(p.planet, nil).AnyTimes()
	repo.EXPECT().GetRoles(gomock.Any(), p.planet.Id).Return(p.roles(), nil).AnyTimes()

	repo.EXPECT().GetChannel(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, channelId uuid.UUID) (*model.Channel, error) {
			if c, ok := p.channels[channelId]; ok {
				return c, nil
			}
			return nil, repository.ErrNotFound
		}).AnyTimes()

	repo.EXPECT().GetNode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, roleId uuid.UUID, targetId uuid.UUID, targetType permission.TargetType) (*model.PermissionsNode, error) {
			for _, n := range p.nodes {
				if n.RoleId == roleId && n.TargetId == targetId && n.TargetType == targetType {
					copied := *n
					return &copied, nil
				}
			}
			return nil, repository.ErrNotFound
		}).AnyTimes()
}

func (p *testPlanet) stubNodes(repo *repository.MockRepository) *gomock.Call {
	return repo.EXPECT().GetNodes(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, targetId uuid.UUID, targetType permission.TargetType, roleIds []uuid.UUID) ([]*model.PermissionsNode, error) {
			var nodes []*model.PermissionsNode
			for _, n := range p.nodes {
				if n.TargetId == targetId && n.TargetType == targetType && slices.Contains(roleIds, n.RoleId) {
					nodes = append(nodes, n)
				}
			}
			return nodes, nil
		})
}

func pointerOf[T any](v T) *T {
	return &v
}

type testEnv struct {
	repo    *repository.MockRepository
	notif   *notifier.MockNotifier
	cache   *cache.MemoryCache
	metrics *metrics.Metrics
	svc     *permissionService
}

func newTestEnv(t *testing.T) *testEnv {
	mockCntrl := gomock.NewController(t)

	env := &testEnv{
		repo:    repository.NewMockRepository(mockCntrl),
		notif:   notifier.NewMockNotifier(mockCntrl),
		cache:   cache.NewMemoryCache(100, time.Minute),
		metrics: metrics.NewMetrics(prometheus.NewRegistry()),
	}
	env.svc = newPermissionService(zap.NewNop().Sugar(), env.repo, env.cache, env.notif, env.metrics)
	return env
}

func assertStatus(t *testing.T, err error, code codes.Code, reason string) {
	t.Helper()

	st, ok := status.FromError(err)
	require.True(t, ok, "expected a status error, got %v", err)
	assert.Equal(t, code, st.Code())

	if reason == "" {
		return
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			assert.Equal(t, reason, info.Reason)
			assert.Equal(t, api.ErrorDomain, info.Domain)
			return
		}
	}
	t.Errorf("status %v has no error info", st)
}

func TestPermissionService_Resolve(t *testing.T) {
	p := newTestPlanet()
	p.nodes = []*model.PermissionsNode{
		p.node(p.everyone, p.general, permission.TargetChatChannel, permission.ChatPostMessages, permission.StateDeny),
		p.node(p.moderator, p.general, permission.TargetChatChannel, permission.ChatPostMessages, permission.StateAllow),
		p.node(p.moderator, p.category, permission.TargetChatChannel, permission.ChatView, permission.StateDeny),
	}

	tests := []struct {
		name string
		req  *api.ResolveRequest

		want     *api.ResolveResponse
		wantCode codes.Code
	}{
		{
			name: "default role fallback",
			req:  &api.ResolveRequest{UserId: p.userId, TargetId: p.general.Id, TargetType: permission.TargetChatChannel, Permission: "view"},
			want: &api.ResolveResponse{Allowed: true, Decision: "ALLOW", Reason: "DEFAULT_ROLE",
				DecidingRoleId: p.everyone.Id, EffectiveTargetId: p.general.Id},
		},
		{
			name: "default role node",
			req:  &api.ResolveRequest{UserId: p.userId, TargetId: p.general.Id, TargetType: permission.TargetChatChannel, Permission: "post-messages"},
			want: &api.ResolveResponse{Decision: "DENY", Reason: "NODE",
				DecidingRoleId: p.everyone.Id, EffectiveTargetId: p.general.Id},
		},
		{
			name: "higher authority role decides",
			req:  &api.ResolveRequest{UserId: p.modId, TargetId: p.general.Id, TargetType: permission.TargetChatChannel, Permission: "post-messages"},
			want: &api.ResolveResponse{Allowed: true, Decision: "ALLOW", Reason: "NODE",
				DecidingRoleId: p.moderator.Id, EffectiveTargetId: p.general.Id},
		},
		{
			name: "inherited from category",
			req:  &api.ResolveRequest{UserId: p.modId, TargetId: p.nested.Id, TargetType: permission.TargetChatChannel, Permission: "view"},
			want: &api.ResolveResponse{Decision: "DENY", Reason: "NODE",
				DecidingRoleId: p.moderator.Id, EffectiveTargetId: p.category.Id},
		},
		{
			name: "owner",
			req:  &api.ResolveRequest{UserId: p.ownerId, TargetId: p.general.Id, TargetType: permission.TargetChatChannel, Permission: "manage"},
			want: &api.ResolveResponse{Allowed: true, Decision: "ALLOW", Reason: "OWNER", EffectiveTargetId: p.general.Id},
		},
		{
			name: "unknown target",
			req:  &api.ResolveRequest{UserId: p.userId, TargetId: uuid.New(), TargetType: permission.TargetChatChannel, Permission: "view"},
			want: &api.ResolveResponse{Decision: "DENY", Reason: "UNKNOWN_TARGET"},
		},
		{
			name: "unknown member",
			req:  &api.ResolveRequest{UserId: uuid.New(), TargetId: p.general.Id, TargetType: permission.TargetChatChannel, Permission: "view"},
			want: &api.ResolveResponse{Decision: "DENY", Reason: "UNKNOWN_MEMBER"},
		},
		{
			name: "type mismatch",
			req:  &api.ResolveRequest{UserId: p.userId, TargetId: p.general.Id, TargetType: permission.TargetVoiceChannel, Permission: "speak"},
			want: &api.ResolveResponse{Decision: "DENY", Reason: "TYPE_MISMATCH", EffectiveTargetId: p.general.Id},
		},
		{
			name:     "unknown permission",
			req:      &api.ResolveRequest{UserId: p.userId, TargetId: p.general.Id, TargetType: permission.TargetChatChannel, Permission: "fly"},
			wantCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)
			p.stubNodes(env.repo).AnyTimes()

			tt.req.PlanetId = p.planet.Id
			got, err := env.svc.Resolve(context.Background(), tt.req)
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, "")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermissionService_Resolve_UnknownPlanet(t *testing.T) {
	env := newTestEnv(t)
	planetId := uuid.New()
	env.repo.EXPECT().GetPlanet(gomock.Any(), planetId).Return(nil, repository.ErrNotFound)

	_, err := env.svc.Resolve(context.Background(), &api.ResolveRequest{
		PlanetId: planetId, UserId: uuid.New(), TargetId: uuid.New(),
		TargetType: permission.TargetChatChannel, Permission: "view",
	})
	assertStatus(t, err, codes.NotFound, api.ReasonPlanetNotFound)
}

func TestPermissionService_Resolve_CachesReads(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stub(env.repo)
	p.stubNodes(env.repo).Times(1)

	req := &api.ResolveRequest{PlanetId: p.planet.Id, UserId: p.modId, TargetId: p.general.Id,
		TargetType: permission.TargetChatChannel, Permission: "view"}

	first, err := env.svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	second, err := env.svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// moderator and everyone nodes, both cached as empty on the first call
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CacheMissesTotal.WithLabelValues("node")))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CacheHitsTotal.WithLabelValues("node")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CacheHitsTotal.WithLabelValues("member")))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.DecisionsTotal.WithLabelValues("channel", "ALLOW", "DEFAULT_ROLE")))
}

func TestPermissionService_Resolve_NodeWrittenDuringRead(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stub(env.repo)
	ctx := context.Background()

	stale := p.node(p.everyone, p.general, permission.TargetChatChannel, permission.ChatPostMessages, permission.StateAllow)
	key := stale.Key()

	env.repo.EXPECT().GetNodes(gomock.Any(), p.general.Id, permission.TargetChatChannel, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ uuid.UUID, _ permission.TargetType, _ []uuid.UUID) ([]*model.PermissionsNode, error) {
			// the node is replaced after it was read
			require.NoError(t, env.cache.InvalidateNode(ctx, key))
			return []*model.PermissionsNode{stale}, nil
		})
	env.repo.EXPECT().GetNodes(gomock.Any(), p.general.Id, permission.TargetChatChannel, gomock.Any()).Return(
		[]*model.PermissionsNode{
			p.node(p.everyone, p.general, permission.TargetChatChannel, permission.ChatPostMessages, permission.StateDeny),
		}, nil)

	req := &api.ResolveRequest{PlanetId: p.planet.Id, UserId: p.userId, TargetId: p.general.Id,
		TargetType: permission.TargetChatChannel, Permission: "post-messages"}

	first, err := env.svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	_, err = env.cache.GetNode(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	second, err := env.svc.Resolve(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Allowed)

	cached, err := env.cache.GetNode(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, permission.StateDeny, cached.GetState(permission.ChatPostMessages.Value))
}

func TestPermissionService_Resolve_RolesChangedDuringRead(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stubWithoutMembers(env.repo)
	p.stubNodes(env.repo).AnyTimes()
	ctx := context.Background()

	env.repo.EXPECT().GetMember(gomock.Any(), p.planet.Id, p.modId).DoAndReturn(
		func(ctx context.Context, planetId uuid.UUID, userId uuid.UUID) (*model.Member, error) {
			// the moderator role is revoked after the member was read
			require.NoError(t, env.cache.InvalidateMemberRoles(ctx, planetId, userId))
			return p.members[userId], nil
		})

	_, err := env.svc.Resolve(ctx, &api.ResolveRequest{PlanetId: p.planet.Id, UserId: p.modId, TargetId: p.general.Id,
		TargetType: permission.TargetChatChannel, Permission: "view"})
	require.NoError(t, err)

	_, err = env.cache.GetMemberRoles(ctx, p.planet.Id, p.modId)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestPermissionService_ResolvePlanet(t *testing.T) {
	p := newTestPlanet()

	tests := []struct {
		name       string
		userId     uuid.UUID
		permission string

		wantDecision string
		wantReason   string
		wantCode     codes.Code
	}{
		{name: "owner", userId: p.ownerId, permission: "ban", wantDecision: "ALLOW", wantReason: "OWNER"},
		{name: "view is implicit", userId: p.userId, permission: "view", wantDecision: "ALLOW", wantReason: "IMPLICIT"},
		{name: "default code", userId: p.userId, permission: "use-economy", wantDecision: "ALLOW", wantReason: "ROLE_CODE"},
		{name: "role code", userId: p.modId, permission: "create-channels", wantDecision: "ALLOW", wantReason: "ROLE_CODE"},
		{name: "not granted", userId: p.userId, permission: "create-channels", wantDecision: "DENY", wantReason: "NO_DECISION"},
		{name: "not a member", userId: uuid.New(), permission: "view", wantDecision: "DENY", wantReason: "UNKNOWN_MEMBER"},
		{name: "unknown permission", userId: p.userId, permission: "fly", wantCode: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)

			got, err := env.svc.ResolvePlanet(context.Background(), &api.ResolvePlanetRequest{
				PlanetId: p.planet.Id, UserId: tt.userId, Permission: tt.permission,
			})
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, api.ReasonUnknownPermission)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDecision, got.Decision)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestPermissionService_CreatePlanet(t *testing.T) {
	env := newTestEnv(t)
	ownerId := uuid.New()

	var createdRole *model.Role
	env.repo.EXPECT().CreatePlanet(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, planet *model.Planet, role *model.Role) error {
			assert.Equal(t, ownerId, planet.OwnerId)
			assert.Equal(t, role.Id, planet.DefaultRoleId)
			assert.Equal(t, model.DefaultRoleLocalId, role.LocalId)
			createdRole = role
			return nil
		})
	env.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, member *model.Member) error {
			assert.Equal(t, ownerId, member.UserId)
			assert.Equal(t, rolebitset.Default, member.RoleBitset())
			return nil
		})
	env.notif.EXPECT().RoleUpdate(gomock.Any(), gomock.Any(), notifier.ChangeCreate).Return(nil)

	resp, err := env.svc.CreatePlanet(context.Background(), &api.CreatePlanetRequest{Name: " test ", OwnerId: ownerId})
	require.NoError(t, err)
	assert.Equal(t, "test", resp.Planet.Name)
	assert.Equal(t, createdRole, resp.DefaultRole)
	assert.Equal(t, resp.Planet.Id, resp.Owner.PlanetId)

	_, err = env.svc.CreatePlanet(context.Background(), &api.CreatePlanetRequest{Name: "", OwnerId: ownerId})
	assertStatus(t, err, codes.InvalidArgument, "")
}

func TestPermissionService_AddMember(t *testing.T) {
	p := newTestPlanet()
	newUserId := uuid.New()

	tests := []struct {
		name      string
		createErr error

		wantCode   codes.Code
		wantReason string
	}{
		{name: "success"},
		{name: "already a member", createErr: repository.ErrAlreadyExists,
			wantCode: codes.AlreadyExists, wantReason: api.ReasonAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)

			env.repo.EXPECT().CreateMember(gomock.Any(), gomock.Any()).Return(tt.createErr)
			if tt.createErr == nil {
				env.notif.EXPECT().MemberRolesUpdate(gomock.Any(), &notifier.MemberRolesUpdateMessage{
					PlanetId: p.planet.Id, UserId: newUserId, RoleId: p.everyone.Id,
					LocalRoleId: model.DefaultRoleLocalId, ChangeType: notifier.ChangeGrant,
				}).Return(nil)
			}

			resp, err := env.svc.AddMember(context.Background(), &api.AddMemberRequest{PlanetId: p.planet.Id, UserId: newUserId})
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, rolebitset.Default, resp.Member.RoleBitset())
		})
	}
}

func TestPermissionService_CreateRole(t *testing.T) {
	p := newTestPlanet()

	tests := []struct {
		name    string
		actorId uuid.UUID
		req     *api.CreateRoleRequest
		repoErr error

		wantCode   codes.Code
		wantReason string
	}{
		{
			name:    "owner",
			actorId: p.ownerId,
			req:     &api.CreateRoleRequest{Name: "admin", Authority: 100, IsAdmin: true},
		},
		{
			name:    "moderator below own authority",
			actorId: p.modId,
			req:     &api.CreateRoleRequest{Name: "trial", Authority: 9},
		},
		{
			name:       "moderator at own authority",
			actorId:    p.modId,
			req:        &api.CreateRoleRequest{Name: "peer", Authority: 10},
			wantCode:   codes.PermissionDenied,
			wantReason: api.ReasonInsufficientAuthority,
		},
		{
			name:       "without manage roles",
			actorId:    p.userId,
			req:        &api.CreateRoleRequest{Name: "trial"},
			wantCode:   codes.PermissionDenied,
			wantReason: api.ReasonInsufficientPermission,
		},
		{
			name:       "role limit",
			actorId:    p.ownerId,
			req:        &api.CreateRoleRequest{Name: "one too many"},
			repoErr:    repository.ErrRoleLimitReached,
			wantCode:   codes.ResourceExhausted,
			wantReason: api.ReasonRoleLimitReached,
		},
		{
			name:     "empty name",
			actorId:  p.ownerId,
			req:      &api.CreateRoleRequest{Name: "  "},
			wantCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)

			shouldCreate := tt.wantCode == codes.OK || tt.repoErr != nil
			if shouldCreate {
				env.repo.EXPECT().CreateRole(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, role *model.Role) error {
						assert.Equal(t, p.planet.Id, role.PlanetId)
						role.LocalId = 3
						return tt.repoErr
					})
			}
			if tt.wantCode == codes.OK {
				env.notif.EXPECT().RoleUpdate(gomock.Any(), gomock.Any(), notifier.ChangeCreate).Return(nil)
			}

			tt.req.ActorId = tt.actorId
			tt.req.PlanetId = p.planet.Id
			resp, err := env.svc.CreateRole(context.Background(), tt.req)
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 3, resp.Role.LocalId)
			assert.Equal(t, tt.req.Authority, resp.Role.Authority)
		})
	}
}

func TestPermissionService_GetMemberRoles(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stub(env.repo)

	resp, err := env.svc.GetMemberRoles(context.Background(), &api.GetMemberRolesRequest{PlanetId: p.planet.Id, UserId: p.modId})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, resp.LocalRoleIds)
	assert.Equal(t, []uuid.UUID{p.everyone.Id, p.moderator.Id}, resp.RoleIds)

	_, err = env.svc.GetMemberRoles(context.Background(), &api.GetMemberRolesRequest{PlanetId: p.planet.Id, UserId: uuid.New()})
	assertStatus(t, err, codes.NotFound, api.ReasonMemberNotFound)
}

func TestPermissionService_SetMemberRole(t *testing.T) {
	p := newTestPlanet()

	tests := []struct {
		name    string
		actorId uuid.UUID
		roleId  uuid.UUID
		value   bool

		repoLocalId int
		repoResult  rolebitset.RoleBitset
		repoErr     error

		want       []int
		wantCode   codes.Code
		wantReason string
	}{
		{
			name:        "owner grants moderator",
			actorId:     p.ownerId,
			roleId:      p.moderator.Id,
			value:       true,
			repoLocalId: 1,
			repoResult:  rolebitset.FromRoleIds(0, 1),
			want:        []int{0, 1},
		},
		{
			name:        "moderator grants helper",
			actorId:     p.modId,
			roleId:      p.helper.Id,
			value:       true,
			repoLocalId: 2,
			repoResult:  rolebitset.FromRoleIds(0, 2),
			want:        []int{0, 2},
		},
		{
			name:        "moderator revokes helper",
			actorId:     p.modId,
			roleId:      p.helper.Id,
			value:       false,
			repoLocalId: 2,
			repoResult:  rolebitset.Default,
			want:        []int{0},
		},
		{
			name:       "moderator grants moderator",
			actorId:    p.modId,
			roleId:     p.moderator.Id,
			value:      true,
			wantCode:   codes.PermissionDenied,
			wantReason: api.ReasonInsufficientAuthority,
		},
		{
			name:       "member without manage roles",
			actorId:    p.userId,
			roleId:     p.helper.Id,
			value:      true,
			wantCode:   codes.PermissionDenied,
			wantReason: api.ReasonInsufficientPermission,
		},
		{
			name:       "revoke default role",
			actorId:    p.ownerId,
			roleId:     p.everyone.Id,
			value:      false,
			wantCode:   codes.InvalidArgument,
			wantReason: api.ReasonDefaultRole,
		},
		{
			name:       "unknown role",
			actorId:    p.ownerId,
			roleId:     uuid.New(),
			value:      true,
			wantCode:   codes.NotFound,
			wantReason: api.ReasonRoleNotFound,
		},
		{
			name:        "already has role",
			actorId:     p.ownerId,
			roleId:      p.helper.Id,
			value:       true,
			repoLocalId: 2,
			repoErr:     repository.ErrAlreadyHasRole,
			wantCode:    codes.AlreadyExists,
			wantReason:  api.ReasonAlreadyHasRole,
		},
		{
			name:        "member not found",
			actorId:     p.ownerId,
			roleId:      p.helper.Id,
			value:       true,
			repoLocalId: 2,
			repoErr:     repository.ErrNotFound,
			wantCode:    codes.NotFound,
			wantReason:  api.ReasonMemberNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)
			ctx := context.Background()

			require.NoError(t, env.cache.SetMemberRoles(ctx, p.planet.Id, p.userId, rolebitset.Default))

			if tt.repoLocalId != 0 {
				env.repo.EXPECT().SetMemberRole(gomock.Any(), p.planet.Id, p.userId, tt.repoLocalId, tt.value).
					Return(tt.repoResult, tt.repoErr)
			}
			if tt.wantCode == codes.OK {
				changeType := notifier.ChangeGrant
				if !tt.value {
					changeType = notifier.ChangeRevoke
				}
				env.notif.EXPECT().MemberRolesUpdate(gomock.Any(), &notifier.MemberRolesUpdateMessage{
					PlanetId: p.planet.Id, UserId: p.userId, RoleId: tt.roleId,
					LocalRoleId: tt.repoLocalId, ChangeType: changeType,
				}).Return(nil)
			}

			resp, err := env.svc.SetMemberRole(ctx, &api.SetMemberRoleRequest{
				ActorId: tt.actorId, PlanetId: p.planet.Id, UserId: p.userId, RoleId: tt.roleId, Value: tt.value,
			})
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.LocalRoleIds)

			_, err = env.cache.GetMemberRoles(ctx, p.planet.Id, p.userId)
			assert.ErrorIs(t, err, cache.ErrCacheMiss)
		})
	}
}

func TestPermissionService_GetPermissionsNode(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	stored := p.node(p.helper, p.general, permission.TargetChatChannel, permission.ChatEmbed, permission.StateDeny)
	p.nodes = []*model.PermissionsNode{stored}
	p.stub(env.repo)

	resp, err := env.svc.GetPermissionsNode(context.Background(), &api.GetPermissionsNodeRequest{
		RoleId: p.helper.Id, TargetId: p.general.Id, TargetType: permission.TargetChatChannel,
	})
	require.NoError(t, err)
	assert.True(t, resp.Node.Exists)
	assert.Equal(t, permission.ChatEmbed.Value, resp.Node.Mask)
	assert.Zero(t, resp.Node.Code)

	resp, err = env.svc.GetPermissionsNode(context.Background(), &api.GetPermissionsNodeRequest{
		RoleId: p.moderator.Id, TargetId: p.general.Id, TargetType: permission.TargetChatChannel,
	})
	require.NoError(t, err)
	assert.False(t, resp.Node.Exists)

	_, err = env.svc.GetPermissionsNode(context.Background(), &api.GetPermissionsNodeRequest{TargetType: 42})
	assertStatus(t, err, codes.InvalidArgument, api.ReasonUnknownTargetType)
}

func TestPermissionService_SetPermissionState(t *testing.T) {
	p := newTestPlanet()
	existing := p.node(p.helper, p.general, permission.TargetChatChannel, permission.ChatPostMessages, permission.StateAllow)
	p.nodes = []*model.PermissionsNode{existing}
	key := existing.Key()

	tests := []struct {
		name       string
		actorId    uuid.UUID
		permission string
		state      string

		wantUpsert *permission.Node
		wantDelete bool
		wantChange notifier.ChangeType
		wantCode   codes.Code
		wantReason string
	}{
		{
			name:       "deny another permission",
			actorId:    p.ownerId,
			permission: "embed",
			state:      "DENY",
			wantUpsert: &permission.Node{Code: permission.ChatPostMessages.Value,
				Mask: permission.ChatPostMessages.Value | permission.ChatEmbed.Value, TargetType: permission.TargetChatChannel},
			wantChange: notifier.ChangeModify,
		},
		{
			name:       "clearing the last permission deletes the node",
			actorId:    p.ownerId,
			permission: "post-messages",
			state:      "UNDEFINED",
			wantDelete: true,
			wantChange: notifier.ChangeDelete,
		},
		{
			name:       "without manage permissions",
			actorId:    p.modId,
			permission: "embed",
			state:      "ALLOW",
			wantCode:   codes.PermissionDenied,
			wantReason: api.ReasonInsufficientPermission,
		},
		{
			name:       "permission from another layout",
			actorId:    p.ownerId,
			permission: "speak",
			state:      "ALLOW",
			wantCode:   codes.InvalidArgument,
			wantReason: api.ReasonUnknownPermission,
		},
		{
			name:       "unknown state",
			actorId:    p.ownerId,
			permission: "embed",
			state:      "MAYBE",
			wantCode:   codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)
			p.stubNodes(env.repo).AnyTimes()
			ctx := context.Background()

			require.NoError(t, env.cache.SetNode(ctx, key, existing.ToNode()))

			if tt.wantUpsert != nil {
				env.repo.EXPECT().UpsertNode(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, node *model.PermissionsNode) error {
						assert.Equal(t, existing.Id, node.Id)
						assert.Equal(t, *tt.wantUpsert, node.ToNode())
						return nil
					})
			}
			if tt.wantDelete {
				env.repo.EXPECT().DeleteNode(gomock.Any(), p.helper.Id, p.general.Id, permission.TargetChatChannel).Return(nil)
			}
			if tt.wantCode == codes.OK {
				env.notif.EXPECT().PermissionsNodeUpdate(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, msg *notifier.PermissionsNodeUpdateMessage) error {
						assert.Equal(t, key, msg.Key())
						assert.Equal(t, tt.wantChange, msg.ChangeType)
						return nil
					})
			}

			resp, err := env.svc.SetPermissionState(ctx, &api.SetPermissionStateRequest{
				ActorId: tt.actorId, PlanetId: p.planet.Id, RoleId: p.helper.Id, TargetId: p.general.Id,
				Permission: tt.permission, State: tt.state,
			})
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, !tt.wantDelete, resp.Node.Exists)

			_, err = env.cache.GetNode(ctx, key)
			assert.ErrorIs(t, err, cache.ErrCacheMiss)
		})
	}
}

func TestPermissionService_SetPermissionState_NewNode(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stub(env.repo)

	env.repo.EXPECT().UpsertNode(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, node *model.PermissionsNode) error {
			assert.Equal(t, p.planet.Id, node.PlanetId)
			assert.Equal(t, permission.StateAllow, node.ToNode().GetState(permission.CategoryManage.Value))
			return nil
		})
	env.notif.EXPECT().PermissionsNodeUpdate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *notifier.PermissionsNodeUpdateMessage) error {
			assert.Equal(t, notifier.ChangeCreate, msg.ChangeType)
			assert.Equal(t, permission.TargetCategory, msg.TargetType)
			return nil
		})

	resp, err := env.svc.SetPermissionState(context.Background(), &api.SetPermissionStateRequest{
		ActorId: p.ownerId, PlanetId: p.planet.Id, RoleId: p.moderator.Id, TargetId: p.category.Id,
		Permission: "manage", State: "allow",
	})
	require.NoError(t, err)
	assert.True(t, resp.Node.Exists)
}

func TestPermissionService_SetPermissionState_CategoryChannelLayout(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stub(env.repo)
	p.stubNodes(env.repo).AnyTimes()
	ctx := context.Background()

	env.repo.EXPECT().UpsertNode(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, node *model.PermissionsNode) error {
			copied := *node
			p.nodes = append(p.nodes, &copied)
			return nil
		}).Times(2)
	env.notif.EXPECT().PermissionsNodeUpdate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *notifier.PermissionsNodeUpdateMessage) error {
			assert.Equal(t, p.category.Id, msg.TargetId)
			assert.Equal(t, permission.TargetChatChannel, msg.TargetType)
			return nil
		}).Times(2)

	resolve := func(targetId uuid.UUID) *api.ResolveResponse {
		resp, err := env.svc.Resolve(ctx, &api.ResolveRequest{PlanetId: p.planet.Id, UserId: p.userId,
			TargetId: targetId, TargetType: permission.TargetChatChannel, Permission: "post-messages"})
		require.NoError(t, err)
		return resp
	}

	// warm the cache so the write has something to invalidate
	before := resolve(p.nested.Id)
	assert.True(t, before.Allowed)
	assert.Equal(t, "DEFAULT_ROLE", before.Reason)

	resp, err := env.svc.SetPermissionState(ctx, &api.SetPermissionStateRequest{
		ActorId: p.ownerId, PlanetId: p.planet.Id, RoleId: p.everyone.Id, TargetId: p.category.Id,
		TargetType: permission.TargetChatChannel, Permission: "post-messages", State: "DENY",
	})
	require.NoError(t, err)
	assert.Equal(t, permission.TargetChatChannel, resp.Node.TargetType)

	inherited := resolve(p.nested.Id)
	assert.Equal(t, &api.ResolveResponse{Decision: "DENY", Reason: "NODE",
		DecidingRoleId: p.everyone.Id, EffectiveTargetId: p.category.Id}, inherited)
	assert.Equal(t, inherited, resolve(p.category.Id))

	_, err = env.svc.SetPermissionState(ctx, &api.SetPermissionStateRequest{
		ActorId: p.ownerId, PlanetId: p.planet.Id, RoleId: p.helper.Id, TargetId: p.category.Id,
		TargetType: permission.TargetChatChannel, Permission: "view-messages", State: "ALLOW",
	})
	require.NoError(t, err)

	// a chat channel only takes its own layout
	_, err = env.svc.SetPermissionState(ctx, &api.SetPermissionStateRequest{
		ActorId: p.ownerId, PlanetId: p.planet.Id, RoleId: p.everyone.Id, TargetId: p.general.Id,
		TargetType: permission.TargetVoiceChannel, Permission: "speak", State: "DENY",
	})
	assertStatus(t, err, codes.InvalidArgument, api.ReasonUnknownTargetType)
}

func TestPermissionService_CreateChannel(t *testing.T) {
	p := newTestPlanet()
	full := &model.Channel{Id: uuid.New(), PlanetId: p.planet.Id, Name: "full",
		Type: permission.TargetCategory, Position: 0x03000000}
	p.channels[full.Id] = full

	tests := []struct {
		name     string
		actorId  uuid.UUID
		parentId *uuid.UUID
		inherits bool

		rangeLower, rangeUpper uint64
		existing               []*model.Channel
		createErrs             []error

		wantPosition position.Position
		wantInherits bool
		wantCode     codes.Code
		wantReason   string
	}{
		{
			name:         "top level",
			actorId:      p.ownerId,
			rangeLower:   0,
			rangeUpper:   1 << 32,
			existing:     []*model.Channel{p.category, p.nested, p.general, full},
			wantPosition: 0x04000000,
		},
		{
			name:         "first top level",
			actorId:      p.modId,
			rangeLower:   0,
			rangeUpper:   1 << 32,
			wantPosition: 0x01000000,
		},
		{
			name:         "in category",
			actorId:      p.modId,
			parentId:     pointerOf(p.category.Id),
			inherits:     true,
			rangeLower:   0x01000000,
			rangeUpper:   0x02000000,
			existing:     []*model.Channel{p.category, p.nested},
			wantPosition: 0x01020000,
			wantInherits: true,
		},
		{
			name:         "position taken concurrently",
			actorId:      p.ownerId,
			parentId:     pointerOf(p.category.Id),
			rangeLower:   0x01000000,
			rangeUpper:   0x02000000,
			existing:     []*model.Channel{p.category, p.nested},
			createErrs:   []error{repository.ErrAlreadyExists, nil},
			wantPosition: 0x01020000,
		},
		{
			name:       "sibling limit",
			actorId:    p.ownerId,
			parentId:   pointerOf(full.Id),
			rangeLower: 0x03000000,
			rangeUpper: 0x04000000,
			existing: []*model.Channel{full, {Id: uuid.New(), PlanetId: p.planet.Id,
				Type: permission.TargetChatChannel, Position: 0x03FF0000}},
			wantCode:   codes.ResourceExhausted,
			wantReason: api.ReasonSiblingLimitReached,
		},
		{
			name:     "parent is not a category",
			actorId:  p.ownerId,
			parentId: pointerOf(p.general.Id),
			wantCode: codes.InvalidArgument,
		},
		{
			name:       "unknown parent",
			actorId:    p.ownerId,
			parentId:   pointerOf(uuid.New()),
			wantCode:   codes.NotFound,
			wantReason: api.ReasonChannelNotFound,
		},
		{
			name:       "without create channels",
			actorId:    p.userId,
			wantCode:   codes.PermissionDenied,
			wantReason: api.ReasonInsufficientPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			p.stub(env.repo)

			if tt.rangeUpper != 0 {
				env.repo.EXPECT().GetChannelsInRange(gomock.Any(), p.planet.Id, tt.rangeLower, tt.rangeUpper).
					Return(tt.existing, nil).MinTimes(1)
			}

			createErrs := tt.createErrs
			if tt.wantCode == codes.OK && createErrs == nil {
				createErrs = []error{nil}
			}
			for _, createErr := range createErrs {
				env.repo.EXPECT().CreateChannel(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, channel *model.Channel) error {
						assert.Equal(t, tt.wantPosition, channel.GetPosition())
						return createErr
					})
			}
			if tt.wantCode == codes.OK {
				env.notif.EXPECT().ChannelUpdate(gomock.Any(), gomock.Any(), notifier.ChangeCreate).Return(nil)
			}

			resp, err := env.svc.CreateChannel(context.Background(), &api.CreateChannelRequest{
				ActorId: tt.actorId, PlanetId: p.planet.Id, ParentId: tt.parentId, Name: "new",
				Type: permission.TargetChatChannel, InheritsPermissions: tt.inherits,
			})
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPosition, resp.Channel.GetPosition())
			assert.Equal(t, tt.wantInherits, resp.Channel.InheritsPermissions)
			if tt.parentId != nil {
				assert.Equal(t, *tt.parentId, resp.Channel.ParentId)
			}
		})
	}
}

func TestPermissionService_GetDescendants(t *testing.T) {
	env := newTestEnv(t)
	p := newTestPlanet()
	p.stub(env.repo)

	env.repo.EXPECT().GetChannelsInRange(gomock.Any(), p.planet.Id, uint64(0x01000000), uint64(0x02000000)).
		Return([]*model.Channel{p.category, p.nested}, nil)

	resp, err := env.svc.GetDescendants(context.Background(), &api.GetDescendantsRequest{ChannelId: p.category.Id})
	require.NoError(t, err)
	assert.Equal(t, []*model.Channel{p.category, p.nested}, resp.Channels)

	_, err = env.svc.GetDescendants(context.Background(), &api.GetDescendantsRequest{ChannelId: uuid.New()})
	assertStatus(t, err, codes.NotFound, api.ReasonChannelNotFound)
}

func TestPermissionService_GetDescendants_MalformedPosition(t *testing.T) {
	env := newTestEnv(t)
	corrupt := &model.Channel{Id: uuid.New(), PlanetId: uuid.New(), Position: 0x00010000}
	env.repo.EXPECT().GetChannel(gomock.Any(), corrupt.Id).Return(corrupt, nil)

	_, err := env.svc.GetDescendants(context.Background(), &api.GetDescendantsRequest{ChannelId: corrupt.Id})
	assertStatus(t, err, codes.Internal, api.ReasonMalformedPosition)
}

func TestPermissionService_GetDescendantRange(t *testing.T) {
	tests := []struct {
		name     string
		position string

		wantLower  uint64
		wantUpper  uint64
		wantCode   codes.Code
		wantReason string
	}{
		{name: "dotted", position: "1.2", wantLower: 0x01020000, wantUpper: 0x01030000},
		{name: "hex", position: "0x01020304", wantLower: 0x01020304, wantUpper: 0x01020305},
		{name: "last top level", position: "255", wantLower: 0xFF000000, wantUpper: 0x100000000},
		{name: "gap", position: "0x01000100", wantCode: codes.InvalidArgument, wantReason: api.ReasonMalformedPosition},
		{name: "too deep", position: "1.2.3.4.5", wantCode: codes.InvalidArgument, wantReason: api.ReasonDepthExceeded},
		{name: "out of range", position: "1.256", wantCode: codes.InvalidArgument, wantReason: api.ReasonInvalidLocalPosition},
		{name: "not a number", position: "a.b", wantCode: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			resp, err := env.svc.GetDescendantRange(context.Background(), &api.GetDescendantRangeRequest{Position: tt.position})
			if tt.wantCode != codes.OK {
				assertStatus(t, err, tt.wantCode, tt.wantReason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLower, resp.Lower)
			assert.Equal(t, tt.wantUpper, resp.Upper)
		})
	}
}

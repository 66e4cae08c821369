package api

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"planet-permission-service/internal/permission"
)

type fakeServer struct {
	UnimplementedPermissionServiceServer

	lastResolve *ResolveRequest
}

func (s *fakeServer) Resolve(_ context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	s.lastResolve = req
	return NewResolveResponse(permission.Result{
		Decision:          permission.Allow,
		Reason:            permission.ReasonNode,
		DecidingRoleId:    req.UserId,
		EffectiveTargetId: req.TargetId,
	}), nil
}

func (s *fakeServer) GetPermissionsNode(_ context.Context, req *GetPermissionsNodeRequest) (*GetPermissionsNodeResponse, error) {
	return &GetPermissionsNodeResponse{Node: &PermissionsNode{
		RoleId:     req.RoleId,
		TargetId:   req.TargetId,
		TargetType: req.TargetType,
		Code:       permission.FullControl,
		Mask:       permission.FullControl,
		Exists:     true,
	}}, nil
}

func setupClient(t *testing.T, srv PermissionServiceServer, opts ...grpc.ServerOption) PermissionServiceClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer(opts...)
	RegisterPermissionServiceServer(s, srv)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewPermissionServiceClient(conn)
}

func TestPermissionService_RoundTrip(t *testing.T) {
	srv := &fakeServer{}
	client := setupClient(t, srv)

	req := &ResolveRequest{
		PlanetId:   uuid.New(),
		UserId:     uuid.New(),
		TargetId:   uuid.New(),
		TargetType: permission.TargetChatChannel,
		Permission: permission.ChatPostMessages.Name,
	}
	resp, err := client.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, srv.lastResolve)
	assert.Equal(t, &ResolveResponse{
		Allowed:           true,
		Decision:          "ALLOW",
		Reason:            "NODE",
		DecidingRoleId:    req.UserId,
		EffectiveTargetId: req.TargetId,
	}, resp)
}

func TestPermissionService_FullWidthCodes(t *testing.T) {
	client := setupClient(t, &fakeServer{})

	resp, err := client.GetPermissionsNode(context.Background(), &GetPermissionsNodeRequest{
		RoleId: uuid.New(), TargetId: uuid.New(), TargetType: permission.TargetVoiceChannel,
	})
	require.NoError(t, err)
	assert.Equal(t, permission.FullControl, resp.Node.Code)
	assert.Equal(t, permission.FullControl, resp.Node.Mask)
}

func TestPermissionService_Unimplemented(t *testing.T) {
	client := setupClient(t, &fakeServer{})

	_, err := client.CreatePlanet(context.Background(), &CreatePlanetRequest{Name: "test"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestPermissionService_Interceptor(t *testing.T) {
	var methods []string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		methods = append(methods, info.FullMethod)
		return handler(ctx, req)
	}
	client := setupClient(t, &fakeServer{}, grpc.UnaryInterceptor(interceptor))

	_, err := client.Resolve(context.Background(), &ResolveRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/planet.permission.PermissionService/Resolve"}, methods)
}

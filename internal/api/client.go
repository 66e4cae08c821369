package api

import (
	"context"

	"google.golang.org/grpc"
)

type PermissionServiceClient interface {
	CreatePlanet(ctx context.Context, in *CreatePlanetRequest, opts ...grpc.CallOption) (*CreatePlanetResponse, error)
	AddMember(ctx context.Context, in *AddMemberRequest, opts ...grpc.CallOption) (*AddMemberResponse, error)
	CreateRole(ctx context.Context, in *CreateRoleRequest, opts ...grpc.CallOption) (*CreateRoleResponse, error)
	GetRoles(ctx context.Context, in *GetRolesRequest, opts ...grpc.CallOption) (*GetRolesResponse, error)
	GetMemberRoles(ctx context.Context, in *GetMemberRolesRequest, opts ...grpc.CallOption) (*GetMemberRolesResponse, error)
	SetMemberRole(ctx context.Context, in *SetMemberRoleRequest, opts ...grpc.CallOption) (*SetMemberRoleResponse, error)
	GetPermissionsNode(ctx context.Context, in *GetPermissionsNodeRequest, opts ...grpc.CallOption) (*GetPermissionsNodeResponse, error)
	SetPermissionState(ctx context.Context, in *SetPermissionStateRequest, opts ...grpc.CallOption) (*SetPermissionStateResponse, error)
	CreateChannel(ctx context.Context, in *CreateChannelRequest, opts ...grpc.CallOption) (*CreateChannelResponse, error)
	GetDescendants(ctx context.Context, in *GetDescendantsRequest, opts ...grpc.CallOption) (*GetDescendantsResponse, error)
	GetDescendantRange(ctx context.Context, in *GetDescendantRangeRequest, opts ...grpc.CallOption) (*GetDescendantRangeResponse, error)
	Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error)
	ResolvePlanet(ctx context.Context, in *ResolvePlanetRequest, opts ...grpc.CallOption) (*ResolveResponse, error)
}

type permissionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPermissionServiceClient returns a client that sends every call with the
// JSON codec.
func NewPermissionServiceClient(cc grpc.ClientConnInterface) PermissionServiceClient {
	return &permissionServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *permissionServiceClient) CreatePlanet(ctx context.Context, in *CreatePlanetRequest, opts ...grpc.CallOption) (*CreatePlanetResponse, error) {
	return invoke[CreatePlanetResponse](ctx, c.cc, "CreatePlanet", in, opts)
}

func (c *permissionServiceClient) AddMember(ctx context.Context, in *AddMemberRequest, opts ...grpc.CallOption) (*AddMemberResponse, error) {
	return invoke[AddMemberResponse](ctx, c.cc, "AddMember", in, opts)
}

func (c *permissionServiceClient) CreateRole(ctx context.Context, in *CreateRoleRequest, opts ...grpc.CallOption) (*CreateRoleResponse, error) {
	return invoke[CreateRoleResponse](ctx, c.cc, "CreateRole", in, opts)
}

func (c *permissionServiceClient) GetRoles(ctx context.Context, in *GetRolesRequest, opts ...grpc.CallOption) (*GetRolesResponse, error) {
	return invoke[GetRolesResponse](ctx, c.cc, "GetRoles", in, opts)
}

func (c *permissionServiceClient) GetMemberRoles(ctx context.Context, in *GetMemberRolesRequest, opts ...grpc.CallOption) (*GetMemberRolesResponse, error) {
	return invoke[GetMemberRolesResponse](ctx, c.cc, "GetMemberRoles", in, opts)
}

func (c *permissionServiceClient) SetMemberRole(ctx context.Context, in *SetMemberRoleRequest, opts ...grpc.CallOption) (*SetMemberRoleResponse, error) {
	return invoke[SetMemberRoleResponse](ctx, c.cc, "SetMemberRole", in, opts)
}

func (c *permissionServiceClient) GetPermissionsNode(ctx context.Context, in *GetPermissionsNodeRequest, opts ...grpc.CallOption) (*GetPermissionsNodeResponse, error) {
	return invoke[GetPermissionsNodeResponse](ctx, c.cc, "GetPermissionsNode", in, opts)
}

func (c *permissionServiceClient) SetPermissionState(ctx context.Context, in *SetPermissionStateRequest, opts ...grpc.CallOption) (*SetPermissionStateResponse, error) {
	return invoke[SetPermissionStateResponse](ctx, c.cc, "SetPermissionState", in, opts)
}

func (c *permissionServiceClient) CreateChannel(ctx context.Context, in *CreateChannelRequest, opts ...grpc.CallOption) (*CreateChannelResponse, error) {
	return invoke[CreateChannelResponse](ctx, c.cc, "CreateChannel", in, opts)
}

func (c *permissionServiceClient) GetDescendants(ctx context.Context, in *GetDescendantsRequest, opts ...grpc.CallOption) (*GetDescendantsResponse, error) {
	return invoke[GetDescendantsResponse](ctx, c.cc, "GetDescendants", in, opts)
}

func (c *permissionServiceClient) GetDescendantRange(ctx context.Context, in *GetDescendantRangeRequest, opts ...grpc.CallOption) (*GetDescendantRangeResponse, error) {
	return invoke[GetDescendantRangeResponse](ctx, c.cc, "GetDescendantRange", in, opts)
}

func (c *permissionServiceClient) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	return invoke[ResolveResponse](ctx, c.cc, "Resolve", in, opts)
}

func (c *permissionServiceClient) ResolvePlanet(ctx context.Context, in *ResolvePlanetRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	return invoke[ResolveResponse](ctx, c.cc, "ResolvePlanet", in, opts)
}

package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "planet.permission.PermissionService"

type PermissionServiceServer interface {
	CreatePlanet(ctx context.Context, req *CreatePlanetRequest) (*CreatePlanetResponse, error)
	AddMember(ctx context.Context, req *AddMemberRequest) (*AddMemberResponse, error)
	CreateRole(ctx context.Context, req *CreateRoleRequest) (*CreateRoleResponse, error)
	GetRoles(ctx context.Context, req *GetRolesRequest) (*GetRolesResponse, error)
	GetMemberRoles(ctx context.Context, req *GetMemberRolesRequest) (*GetMemberRolesResponse, error)
	SetMemberRole(ctx context.Context, req *SetMemberRoleRequest) (*SetMemberRoleResponse, error)
	GetPermissionsNode(ctx context.Context, req *GetPermissionsNodeRequest) (*GetPermissionsNodeResponse, error)
	SetPermissionState(ctx context.Context, req *SetPermissionStateRequest) (*SetPermissionStateResponse, error)
	CreateChannel(ctx context.Context, req *CreateChannelRequest) (*CreateChannelResponse, error)
	GetDescendants(ctx context.Context, req *GetDescendantsRequest) (*GetDescendantsResponse, error)
	GetDescendantRange(ctx context.Context, req *GetDescendantRangeRequest) (*GetDescendantRangeResponse, error)
	Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error)
	ResolvePlanet(ctx context.Context, req *ResolvePlanetRequest) (*ResolveResponse, error)
}

// UnimplementedPermissionServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedPermissionServiceServer struct{}

func (UnimplementedPermissionServiceServer) CreatePlanet(context.Context, *CreatePlanetRequest) (*CreatePlanetResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreatePlanet not implemented")
}

func (UnimplementedPermissionServiceServer) AddMember(context.Context, *AddMemberRequest) (*AddMemberResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddMember not implemented")
}

func (UnimplementedPermissionServiceServer) CreateRole(context.Context, *CreateRoleRequest) (*CreateRoleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateRole not implemented")
}

func (UnimplementedPermissionServiceServer) GetRoles(context.Context, *GetRolesRequest) (*GetRolesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRoles not implemented")
}

func (UnimplementedPermissionServiceServer) GetMemberRoles(context.Context, *GetMemberRolesRequest) (*GetMemberRolesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMemberRoles not implemented")
}

func (UnimplementedPermissionServiceServer) SetMemberRole(context.Context, *SetMemberRoleRequest) (*SetMemberRoleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetMemberRole not implemented")
}

func (UnimplementedPermissionServiceServer) GetPermissionsNode(context.Context, *GetPermissionsNodeRequest) (*GetPermissionsNodeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPermissionsNode not implemented")
}

func (UnimplementedPermissionServiceServer) SetPermissionState(context.Context, *SetPermissionStateRequest) (*SetPermissionStateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetPermissionState not implemented")
}

func (UnimplementedPermissionServiceServer) CreateChannel(context.Context, *CreateChannelRequest) (*CreateChannelResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateChannel not implemented")
}

func (UnimplementedPermissionServiceServer) GetDescendants(context.Context, *GetDescendantsRequest) (*GetDescendantsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDescendants not implemented")
}

func (UnimplementedPermissionServiceServer) GetDescendantRange(context.Context, *GetDescendantRangeRequest) (*GetDescendantRangeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDescendantRange not implemented")
}

func (UnimplementedPermissionServiceServer) Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Resolve not implemented")
}

func (UnimplementedPermissionServiceServer) ResolvePlanet(context.Context, *ResolvePlanetRequest) (*ResolveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolvePlanet not implemented")
}

func RegisterPermissionServiceServer(s grpc.ServiceRegistrar, srv PermissionServiceServer) {
	s.RegisterService(&PermissionServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc's untyped handler signature.
func unaryHandler[Req any, Resp any](method string, call func(PermissionServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PermissionServiceServer), ctx, req)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PermissionServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

var PermissionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PermissionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreatePlanet", Handler: unaryHandler("CreatePlanet", PermissionServiceServer.CreatePlanet)},
		{MethodName: "AddMember", Handler: unaryHandler("AddMember", PermissionServiceServer.AddMember)},
		{MethodName: "CreateRole", Handler: unaryHandler("CreateRole", PermissionServiceServer.CreateRole)},
		{MethodName: "GetRoles", Handler: unaryHandler("GetRoles", PermissionServiceServer.GetRoles)},
		{MethodName: "GetMemberRoles", Handler: unaryHandler("GetMemberRoles", PermissionServiceServer.GetMemberRoles)},
		{MethodName: "SetMemberRole", Handler: unaryHandler("SetMemberRole", PermissionServiceServer.SetMemberRole)},
		{MethodName: "GetPermissionsNode", Handler: unaryHandler("GetPermissionsNode", PermissionServiceServer.GetPermissionsNode)},
		{MethodName: "SetPermissionState", Handler: unaryHandler("SetPermissionState", PermissionServiceServer.SetPermissionState)},
		{MethodName: "CreateChannel", Handler: unaryHandler("CreateChannel", PermissionServiceServer.CreateChannel)},
		{MethodName: "GetDescendants", Handler: unaryHandler("GetDescendants", PermissionServiceServer.GetDescendants)},
		{MethodName: "GetDescendantRange", Handler: unaryHandler("GetDescendantRange", PermissionServiceServer.GetDescendantRange)},
		{MethodName: "Resolve", Handler: unaryHandler("Resolve", PermissionServiceServer.Resolve)},
		{MethodName: "ResolvePlanet", Handler: unaryHandler("ResolvePlanet", PermissionServiceServer.ResolvePlanet)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "planet/permission/service.json",
}

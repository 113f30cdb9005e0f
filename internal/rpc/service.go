// Package rpc describes the gophsync.v1.SyncService gRPC service shared by
// the client gateway and the reference server.
//
// Messages are well-known protobuf types: requests and single results are
// google.protobuf.Struct, lists are google.protobuf.ListValue, and calls
// without a result return google.protobuf.Empty. Field names are the Key*
// constants.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gophsync.v1.SyncService"

const (
	MethodRegister = "/" + ServiceName + "/Register"
	MethodLogin    = "/" + ServiceName + "/Login"
	MethodPing     = "/" + ServiceName + "/Ping"
	MethodInsert   = "/" + ServiceName + "/Insert"
	MethodUpdate   = "/" + ServiceName + "/Update"
	MethodDelete   = "/" + ServiceName + "/Delete"
	MethodList     = "/" + ServiceName + "/List"
)

// Struct field names.
const (
	KeyEmail       = "email"
	KeyPassword    = "password"
	KeyUserID      = "user_id"
	KeyAccessToken = "access_token"
	KeyStatus      = "status"
	KeyEntity      = "entity"
	KeyID          = "id"
	KeyRecord      = "record"
	KeyFields      = "fields"
)

// StatusOK is the Ping reply status of a healthy server.
const StatusOK = "OK"

// Handler is the server side of the service.
type Handler interface {
	Register(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Ping(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Insert(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Update(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	List(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error)
}

// RequiresAuth reports whether fullMethod needs an access token.
func RequiresAuth(fullMethod string) bool {
	switch fullMethod {
	case MethodInsert, MethodUpdate, MethodDelete, MethodList:
		return true
	}
	return false
}

func unary[Req, Resp any](fullMethod string, call func(Handler, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		h := srv.(Handler)
		if interceptor == nil {
			out, err := call(h, ctx, in)
			return out, err
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			out, err := call(h, ctx, req.(*Req))
			return out, err
		})
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, Handler.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, Handler.Login)},
		{MethodName: "Ping", Handler: unary(MethodPing, Handler.Ping)},
		{MethodName: "Insert", Handler: unary(MethodInsert, Handler.Insert)},
		{MethodName: "Update", Handler: unary(MethodUpdate, Handler.Update)},
		{MethodName: "Delete", Handler: unary(MethodDelete, Handler.Delete)},
		{MethodName: "List", Handler: unary(MethodList, Handler.List)},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterHandler(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// Stub is the client side of the service.
type Stub struct {
	cc grpc.ClientConnInterface
}

func NewStub(cc grpc.ClientConnInterface) *Stub {
	return &Stub{cc: cc}
}

func (c *Stub) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodRegister, in, new(emptypb.Empty), opts...)
}

func (c *Stub) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodLogin, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Stub) Ping(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodPing, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Stub) Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodInsert, in, new(emptypb.Empty), opts...)
}

func (c *Stub) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodUpdate, in, new(emptypb.Empty), opts...)
}

func (c *Stub) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodDelete, in, new(emptypb.Empty), opts...)
}

func (c *Stub) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodList, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// String returns the string field key of s, or "".
func String(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

// Object returns the nested struct field key of s as a map, or nil.
func Object(s *structpb.Struct, key string) map[string]any {
	if s == nil {
		return nil
	}
	v := s.GetFields()[key].GetStructValue()
	if v == nil {
		return nil
	}
	return v.AsMap()
}

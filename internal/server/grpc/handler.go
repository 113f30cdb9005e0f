package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStatus maps service errors to gRPC codes. Unknown errors are logged and
// hidden behind codes.Internal.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		s.logger.Error(ctx, op+" failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func checkEntity(req *structpb.Struct) error {
	if e := rpc.String(req, rpc.KeyEntity); e != common.EntityTodo {
		return status.Errorf(codes.InvalidArgument, "unknown entity %q", e)
	}
	return nil
}

// caller returns the authenticated user id put in place by the interceptor.
func caller(ctx context.Context, req *structpb.Struct) (string, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if err := checkEntity(req); err != nil {
		return "", err
	}
	return userID, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	u, err := s.users.Register(ctx, rpc.String(req, rpc.KeyEmail), rpc.String(req, rpc.KeyPassword))
	if err != nil {
		return nil, s.toStatus(ctx, "register", err)
	}
	s.logger.Info(ctx, "Registered", "email", u.Email)
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.users.Login(ctx, rpc.String(req, rpc.KeyEmail), rpc.String(req, rpc.KeyPassword))
	if err != nil {
		return nil, s.toStatus(ctx, "login", err)
	}
	return structpb.NewStruct(map[string]any{
		rpc.KeyUserID:      res.UserID,
		rpc.KeyAccessToken: res.AccessToken,
	})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{rpc.KeyStatus: rpc.StatusOK})
}

func (s *GRPCServer) Insert(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx, req)
	if err != nil {
		return nil, err
	}
	record := rpc.Object(req, rpc.KeyRecord)
	if record == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}
	if err := s.todos.Insert(ctx, userID, record); err != nil {
		return nil, s.toStatus(ctx, "insert", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx, req)
	if err != nil {
		return nil, err
	}
	fields := rpc.Object(req, rpc.KeyFields)
	if err := s.todos.Update(ctx, userID, rpc.String(req, rpc.KeyID), fields); err != nil {
		return nil, s.toStatus(ctx, "update", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := caller(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.todos.Delete(ctx, userID, rpc.String(req, rpc.KeyID)); err != nil {
		return nil, s.toStatus(ctx, "delete", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	userID, err := caller(ctx, req)
	if err != nil {
		return nil, err
	}
	todos, err := s.todos.List(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "list", err)
	}

	rows := make([]any, 0, len(todos))
	for _, t := range todos {
		rows = append(rows, t.Map())
	}
	list, err := structpb.NewList(rows)
	if err != nil {
		return nil, s.toStatus(ctx, "list", err)
	}
	return list, nil
}

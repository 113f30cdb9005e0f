package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// stub is the subset of rpc.Stub the gateway calls.
type stub interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error)
	Insert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error
	Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error
	List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type GRPCClient struct {
	conn   *grpc.ClientConn
	client stub

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(t string) {
	s.mu.Lock()
	s.accessToken = t
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient creates a lazily connecting client for target. Extra dial
// options are appended to the defaults (insecure transport, token
// interceptor).
func NewGRPCClient(target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewStub(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func credentials(email, password string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{rpc.KeyEmail: email, rpc.KeyPassword: password})
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) error {
	req, err := credentials(email, password)
	if err != nil {
		return err
	}
	return mapError(s.client.Register(ctx, req))
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (string, error) {
	req, err := credentials(email, password)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return "", mapError(err)
	}
	s.setToken(rpc.String(resp, rpc.KeyAccessToken))
	return rpc.String(resp, rpc.KeyUserID), nil
}

// Logout forgets the access token. Tokens are stateless on the server, so
// no call is made.
func (s *GRPCClient) Logout(ctx context.Context) error {
	s.setToken("")
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx)
	if err != nil {
		return mapError(err)
	}
	if rpc.String(resp, rpc.KeyStatus) != rpc.StatusOK {
		return &RemoteError{Kind: KindOther, Err: ErrUnavailable}
	}
	return nil
}

func (s *GRPCClient) Insert(ctx context.Context, entity string, payload models.Payload) error {
	req, err := structpb.NewStruct(map[string]any{
		rpc.KeyEntity: entity,
		rpc.KeyRecord: map[string]any(payload),
	})
	if err != nil {
		return fmt.Errorf("encode insert: %w", err)
	}
	return mapError(s.client.Insert(ctx, req))
}

func (s *GRPCClient) Update(ctx context.Context, entity, id string, fields models.Payload) error {
	req, err := structpb.NewStruct(map[string]any{
		rpc.KeyEntity: entity,
		rpc.KeyID:     id,
		rpc.KeyFields: map[string]any(fields),
	})
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	return mapError(s.client.Update(ctx, req))
}

func (s *GRPCClient) Delete(ctx context.Context, entity, id string) error {
	req, err := structpb.NewStruct(map[string]any{rpc.KeyEntity: entity, rpc.KeyID: id})
	if err != nil {
		return fmt.Errorf("encode delete: %w", err)
	}
	return mapError(s.client.Delete(ctx, req))
}

func (s *GRPCClient) List(ctx context.Context, entity string) ([]models.Payload, error) {
	req, err := structpb.NewStruct(map[string]any{rpc.KeyEntity: entity})
	if err != nil {
		return nil, err
	}
	resp, err := s.client.List(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]models.Payload, 0, len(resp.GetValues()))
	for _, v := range resp.GetValues() {
		if row := v.GetStructValue(); row != nil {
			result = append(result, models.Payload(row.AsMap()))
		}
	}
	return result, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return &RemoteError{Kind: KindOther, Err: err}
	}
	switch st.Code() {
	case codes.AlreadyExists:
		return &RemoteError{Kind: KindDuplicate, Err: fmt.Errorf("%w: %s", ErrDuplicate, st.Message())}
	case codes.Unauthenticated, codes.PermissionDenied:
		return &RemoteError{Kind: KindUnauthenticated, Err: fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return &RemoteError{Kind: KindOther, Err: fmt.Errorf("%w: %s", ErrUnavailable, st.Message())}
	default:
		return &RemoteError{Kind: KindOther, Err: fmt.Errorf("rpc error: %w", err)}
	}
}

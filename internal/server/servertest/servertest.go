// Package servertest runs an in-memory sync server on a bufconn listener
// for tests.
package servertest

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/server/config"
	gs "github.com/dmitrijs2005/gophsync/internal/server/grpc"
	"github.com/dmitrijs2005/gophsync/internal/server/services"
	"github.com/dmitrijs2005/gophsync/internal/server/shared/db"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const SecretKey = "test-secret"

// Server is a running in-memory server.
type Server struct {
	lis  *bufconn.Listener
	down atomic.Bool
	Repo *db.InMemoryRepositoryManager
}

// Start serves until the test ends.
func Start(t testing.TB) *Server {
	t.Helper()

	s := &Server{lis: bufconn.Listen(1 << 20), Repo: db.NewInMemoryRepositoryManager()}
	cfg := &config.Config{SecretKey: SecretKey, AccessTokenValidityDuration: time.Hour}
	srv := gs.NewGRPCServer("bufnet", logging.NewNopLogger(),
		services.NewUserService(s.Repo, cfg), services.NewTodoService(s.Repo), cfg.SecretKey)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, s.lis, grpc.ChainUnaryInterceptor(s.gate))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

// SetDown makes every call fail with codes.Unavailable until reset.
func (s *Server) SetDown(down bool) {
	s.down.Store(down)
}

func (s *Server) gate(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.down.Load() {
		return nil, status.Error(codes.Unavailable, "server down")
	}
	return handler(ctx, req)
}

func (s *Server) dial(ctx context.Context, _ string) (net.Conn, error) {
	return s.lis.DialContext(ctx)
}

// Client returns a gateway client connected to the server.
func (s *Server) Client(t testing.TB) *client.GRPCClient {
	t.Helper()
	c, err := client.NewGRPCClient("passthrough:///bufnet", grpc.WithContextDialer(s.dial))
	if err != nil {
		t.Fatalf("dial test server: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

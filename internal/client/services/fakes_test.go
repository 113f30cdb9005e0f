package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/netstate"
	"github.com/dmitrijs2005/gophsync/internal/client/storage"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMonitor(online bool) *netstate.Monitor {
	m := netstate.NewMonitor(nil, time.Hour, time.Second, logging.NewNopLogger())
	m.Set(online)
	return m
}

type fakeSession struct {
	mu sync.Mutex
	s  models.Session
}

func genuine() *fakeSession {
	return &fakeSession{s: models.Session{Email: "a@b.c", UserID: "u-1", Mode: models.SessionOnline}}
}

func offlineSession() *fakeSession {
	return &fakeSession{s: models.Session{Email: "a@b.c", UserID: "u-1", Mode: models.SessionOffline}}
}

func (f *fakeSession) Session() models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

func (f *fakeSession) IsGenuine() bool { return f.Session().Genuine() }

func (f *fakeSession) set(mode models.SessionMode) {
	f.mu.Lock()
	f.s.Mode = mode
	f.mu.Unlock()
}

// fakeRemote is an in-memory remote service holding rows by id.
type fakeRemote struct {
	client.Client

	mu    sync.Mutex
	rows  map[string]models.Payload
	calls []string

	// down makes every call fail as unavailable.
	down bool
	// failNext fails the next n data calls with a non-classified error.
	failNext int
	// unauth rejects data calls as unauthenticated.
	unauth bool
	// gate, when set, blocks data calls until it is closed.
	gate chan struct{}
	// stall blocks inserts until the caller's ctx is done.
	stall bool
	// afterList runs once List has taken its snapshot.
	afterList func()

	loginUserID string
	loginErr    error
	registerErr error
	logouts     int
}

func newRemote() *fakeRemote {
	return &fakeRemote{rows: make(map[string]models.Payload), loginUserID: "u-1"}
}

func (f *fakeRemote) enter(op string) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	switch {
	case f.down:
		return &client.RemoteError{Kind: client.KindOther, Err: client.ErrUnavailable}
	case f.unauth:
		return &client.RemoteError{Kind: client.KindUnauthenticated, Err: client.ErrUnauthorized}
	case f.failNext > 0:
		f.failNext--
		return &client.RemoteError{Kind: client.KindOther, Err: fmt.Errorf("rpc error: internal")}
	}
	return nil
}

func (f *fakeRemote) Insert(ctx context.Context, entity string, p models.Payload) error {
	f.mu.Lock()
	stall := f.stall
	f.mu.Unlock()
	if stall {
		<-ctx.Done()
		return &client.RemoteError{Kind: client.KindOther, Err: ctx.Err()}
	}
	if err := f.enter("insert " + p.ID()); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID()]; ok {
		return &client.RemoteError{Kind: client.KindDuplicate, Err: client.ErrDuplicate}
	}
	row := models.Payload{}
	for k, v := range p {
		row[k] = v
	}
	f.rows[p.ID()] = row
	return nil
}

func (f *fakeRemote) Update(ctx context.Context, entity, id string, fields models.Payload) error {
	if err := f.enter("update " + id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		for k, v := range fields {
			row[k] = v
		}
	}
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, entity, id string) error {
	if err := f.enter("delete " + id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeRemote) List(ctx context.Context, entity string) ([]models.Payload, error) {
	if err := f.enter("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	out := make([]models.Payload, 0, len(f.rows))
	for _, r := range f.rows {
		cp := models.Payload{}
		for k, v := range r {
			cp[k] = v
		}
		out = append(out, cp)
	}
	hook := f.afterList
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeRemote) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", &client.RemoteError{Kind: client.KindOther, Err: client.ErrUnavailable}
	}
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.loginUserID, nil
}

func (f *fakeRemote) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) Register(ctx context.Context, email, password string) error {
	return f.registerErr
}

func (f *fakeRemote) setDown(v bool) {
	f.mu.Lock()
	f.down = v
	f.mu.Unlock()
}

func (f *fakeRemote) row(id string) (models.Payload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	return r, ok
}

func (f *fakeRemote) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

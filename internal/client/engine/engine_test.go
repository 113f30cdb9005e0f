package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/config"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/services"
	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/server/servertest"
	"github.com/dmitrijs2005/gophsync/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	email    = "alice@example.com"
	password = "correct horse"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabasePath:         filepath.Join(t.TempDir(), "client.db"),
		OnlineCheckInterval:  time.Hour,
		ProbeTimeout:         time.Second,
		ImmediateSyncTimeout: 2 * time.Second,
	}
}

func open(t *testing.T, srv *servertest.Server, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := Open(context.Background(), cfg, srv.Client(t), logging.NewNopLogger(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// signedIn returns an engine with a genuine session, online.
func signedIn(t *testing.T, srv *servertest.Server, opts ...Option) *Engine {
	t.Helper()
	ctx := context.Background()
	e := open(t, srv, testConfig(t), opts...)
	require.NoError(t, e.Register(ctx, email, password))
	e.monitor.Set(true)
	s, err := e.SignIn(ctx, email, password)
	require.NoError(t, err)
	require.True(t, s.Genuine())
	e.sync.Wait()
	return e
}

func remoteRows(t *testing.T, srv *servertest.Server, userID string) map[string]string {
	t.Helper()
	list, err := srv.Repo.Todos().List(context.Background(), userID)
	require.NoError(t, err)
	out := make(map[string]string, len(list))
	for _, td := range list {
		out[td.ID] = td.Title
	}
	return out
}

func syncNow(t *testing.T, e *Engine) models.SyncReport {
	t.Helper()
	e.sync.Wait()
	report, err := e.Sync(context.Background())
	require.NoError(t, err)
	require.False(t, report.Skipped)
	return report
}

func TestEngine_CreateOfflineThenReconnect(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	e.monitor.Set(false)
	res, err := e.AddRecord(ctx, models.NewTodo{Title: "A"})
	require.NoError(t, err)
	assert.False(t, res.Synced)

	pending, err := e.ListPendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	a, err := e.GetRecord(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, a.Dirty)

	e.monitor.Set(true)
	report := syncNow(t, e)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 0, report.Remaining)

	pending, err = e.ListPendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	a, err = e.GetRecord(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, a.Dirty)
	assert.Equal(t, map[string]string{res.ID: "A"}, remoteRows(t, srv, e.Session().UserID))
}

func TestEngine_TwoQuickUpdatesApplyInOrder(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	res, err := e.AddRecord(ctx, models.NewTodo{Title: "draft"})
	require.NoError(t, err)
	require.True(t, res.Synced)

	e.monitor.Set(false)
	first, second := "first", "second"
	_, err = e.UpdateRecord(ctx, res.ID, models.TodoPatch{Title: &first})
	require.NoError(t, err)
	_, err = e.UpdateRecord(ctx, res.ID, models.TodoPatch{Title: &second})
	require.NoError(t, err)

	pending, err := e.ListPendingCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, pending)

	e.monitor.Set(true)
	report := syncNow(t, e)
	assert.Equal(t, 2, report.Synced)
	assert.Equal(t, map[string]string{res.ID: "second"}, remoteRows(t, srv, e.Session().UserID))
}

func TestEngine_ReplayAfterCrashIsIdempotent(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	e.monitor.Set(false)
	res, err := e.AddRecord(ctx, models.NewTodo{Title: "once"})
	require.NoError(t, err)

	// The remote already applied the insert, but the confirmation was lost.
	e.monitor.Set(true)
	todo, err := e.GetRecord(ctx, res.ID)
	require.NoError(t, err)
	require.NoError(t, e.remote.Insert(ctx, common.EntityTodo, models.InsertPayload(todo)))

	report := syncNow(t, e)
	assert.Equal(t, 1, report.Duplicates)
	assert.Zero(t, report.Failed)
	assert.Len(t, remoteRows(t, srv, e.Session().UserID), 1)

	todo, err = e.GetRecord(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, todo.Dirty)
}

func TestEngine_ToggleAndDeleteOnline(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	res, err := e.AddRecord(ctx, models.NewTodo{Title: "task", Priority: models.PriorityHigh})
	require.NoError(t, err)

	tog, err := e.ToggleRecord(ctx, res.ID, true)
	require.NoError(t, err)
	assert.True(t, tog.Synced)

	remote, err := srv.Repo.Todos().List(ctx, e.Session().UserID)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.True(t, remote[0].Completed)
	assert.Equal(t, "high", remote[0].Priority)

	del, err := e.DeleteRecord(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, del.Synced)
	assert.Empty(t, remoteRows(t, srv, e.Session().UserID))

	list, err := e.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEngine_ListPullsRemoteRecords(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	other := srv.Client(t)
	_, err := other.Login(ctx, email, password)
	require.NoError(t, err)
	now := time.Now().UnixMilli()
	require.NoError(t, other.Insert(ctx, common.EntityTodo, models.Payload{
		models.FieldID: "from-elsewhere", models.FieldTitle: "remote",
		models.FieldCreatedAt: now, models.FieldUpdatedAt: now,
	}))

	list, err := e.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "remote", list[0].Title)
	assert.False(t, list[0].Dirty)
}

func TestEngine_SignInOnlineThenOffline(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	assert.True(t, e.VerifyCachedCredentials(ctx, email, password).Valid)

	e.monitor.Set(false)
	require.NoError(t, e.SignOut(ctx))
	assert.False(t, e.Session().Active())

	s, err := e.SignIn(ctx, email, password)
	require.NoError(t, err)
	assert.Equal(t, models.SessionOffline, s.Mode)

	v := e.VerifyCachedCredentials(ctx, email, "wrong")
	assert.False(t, v.Valid)
	assert.False(t, v.Expired)

	_, err = e.SignIn(ctx, email, "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestEngine_SignOutOnlineClearsCache(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	require.NoError(t, e.SignOut(ctx))
	assert.False(t, e.VerifyCachedCredentials(ctx, email, password).Valid)

	e.monitor.Set(false)
	_, err := e.SignIn(ctx, email, password)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestEngine_UnreachableServerFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	e := signedIn(t, srv)

	srv.SetDown(true)
	s, err := e.SignIn(ctx, email, password)
	require.NoError(t, err)
	assert.Equal(t, models.SessionOffline, s.Mode)

	res, err := e.AddRecord(ctx, models.NewTodo{Title: "queued"})
	require.NoError(t, err)
	assert.False(t, res.Synced)

	report, err := e.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
}

func TestEngine_CredentialCacheExpiry(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	clock := timex.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	e := open(t, srv, testConfig(t), WithClock(clock))

	require.NoError(t, e.CacheCredentials(ctx, email, password, "u-1"))

	clock.Advance(29*24*time.Hour + 23*time.Hour)
	v := e.VerifyCachedCredentials(ctx, email, password)
	assert.True(t, v.Valid)
	assert.False(t, v.Expired)

	clock.Advance(time.Hour + time.Second)
	v = e.VerifyCachedCredentials(ctx, email, password)
	assert.True(t, v.Expired)
	assert.False(t, v.Valid)

	_, err := e.SignIn(ctx, email, password)
	assert.ErrorIs(t, err, services.ErrOfflineExpired)

	require.NoError(t, e.ClearCredentialCache(ctx))
	assert.False(t, e.VerifyCachedCredentials(ctx, email, password).Expired)
}

func TestEngine_RestoreAfterReopen(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)
	cfg := testConfig(t)

	e1 := open(t, srv, cfg)
	require.NoError(t, e1.CacheCredentials(ctx, email, password, "u-1"))
	s, err := e1.SignIn(ctx, email, password)
	require.NoError(t, err)
	require.Equal(t, models.SessionOffline, s.Mode)
	_, err = e1.AddRecord(ctx, models.NewTodo{Title: "kept"})
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	e2 := open(t, srv, cfg)
	s, err = e2.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Session{Email: email, UserID: "u-1", Mode: models.SessionOffline}, s)

	pending, err := e2.ListPendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestEngine_StartDrainsOnReconnect(t *testing.T) {
	ctx := context.Background()
	srv := servertest.Start(t)

	var (
		mu      sync.Mutex
		reports []models.SyncReport
	)
	notify := func(r models.SyncReport) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
	}

	cfg := testConfig(t)
	cfg.OnlineCheckInterval = 20 * time.Millisecond
	e := open(t, srv, cfg, WithNotifier(notify))
	require.NoError(t, e.Register(ctx, email, password))

	runCtx, cancel := context.WithCancel(ctx)
	e.Start(runCtx)
	t.Cleanup(cancel)

	require.Eventually(t, e.Online, time.Second, 10*time.Millisecond)
	_, err := e.SignIn(ctx, email, password)
	require.NoError(t, err)

	srv.SetDown(true)
	require.Eventually(t, func() bool { return !e.Online() }, time.Second, 10*time.Millisecond)

	res, err := e.AddRecord(ctx, models.NewTodo{Title: "while down"})
	require.NoError(t, err)
	assert.False(t, res.Synced)

	srv.SetDown(false)
	require.Eventually(t, func() bool {
		n, err := e.ListPendingCount(ctx)
		return err == nil && n == 0
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, map[string]string{res.ID: "while down"}, remoteRows(t, srv, e.Session().UserID))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, reports)
	assert.Equal(t, 1, reports[len(reports)-1].Synced)

	cancel()
	require.NoError(t, e.Close())
}

func TestEngine_TransitionsAreObservable(t *testing.T) {
	srv := servertest.Start(t)
	e := open(t, srv, testConfig(t))

	ch, stop := e.Transitions()
	defer stop()

	e.monitor.Set(true)
	select {
	case tr := <-ch:
		assert.True(t, tr.Online)
	case <-time.After(time.Second):
		t.Fatal("no transition")
	}
}

func TestEngine_MutationsNeedSession(t *testing.T) {
	srv := servertest.Start(t)
	e := open(t, srv, testConfig(t))

	_, err := e.AddRecord(context.Background(), models.NewTodo{Title: "x"})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

// Package engine is the public face of the sync client. It owns the local
// database, the connectivity monitor, the credential cache and the services
// built on top of them.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/config"
	"github.com/dmitrijs2005/gophsync/internal/client/credcache"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/netstate"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsync/internal/client/services"
	"github.com/dmitrijs2005/gophsync/internal/client/storage"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

type options struct {
	clock    timex.Clock
	notifier services.Notifier
}

// Option customizes Open.
type Option func(*options)

// WithClock replaces the wall clock used for timestamps and cache expiry.
func WithClock(c timex.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithNotifier receives a report after every drain cycle that found work.
func WithNotifier(n services.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

type Engine struct {
	db      *sql.DB
	remote  client.Client
	monitor *netstate.Monitor
	cache   *credcache.Cache
	auth    services.AuthService
	records services.RecordService
	sync    services.SyncService
	logger  logging.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open prepares the local database at cfg.DatabasePath and wires the
// services against remote. The monitor starts offline; call Start to begin
// probing.
func Open(ctx context.Context, cfg *config.Config, remote client.Client, logger logging.Logger, opts ...Option) (*Engine, error) {
	o := options{clock: timex.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := storage.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	monitor := netstate.NewMonitor(remote, cfg.OnlineCheckInterval, cfg.ProbeTimeout, logger)
	cache := credcache.New(metadata.NewSQLiteRepository(db), o.clock, logger)
	inflight := services.NewInflight()

	auth := services.NewAuthService(remote, cache, monitor, db, logger)
	records := services.NewRecordService(remote, db, auth, monitor, inflight, o.clock, cfg.ImmediateSyncTimeout, logger)
	syncer := services.NewSyncService(remote, db, auth, monitor, inflight, o.notifier, logger)

	// A fresh remote session is the moment queued work can be replayed.
	auth.OnGenuineSession(syncer.Trigger)

	return &Engine{
		db:      db,
		remote:  remote,
		monitor: monitor,
		cache:   cache,
		auth:    auth,
		records: records,
		sync:    syncer,
		logger:  logger.With("module", "engine"),
	}, nil
}

// Start runs the connectivity probe and the reconnect drainer until ctx is
// done.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.monitor.Run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.sync.Run(ctx)
	}()
	e.logger.Info(ctx, "engine started")
}

// Close waits for background work started by Start and for any abandoned
// remote attempts, then closes the database and the remote connection. The
// context passed to Start must be cancelled first.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.wg.Wait()
		e.records.Wait()
		e.sync.Wait()
		err = errors.Join(e.db.Close(), e.remote.Close())
	})
	return err
}

// Online reports the last observed connectivity.
func (e *Engine) Online() bool {
	return e.monitor.Online()
}

// Transitions streams connectivity changes. Call the returned func to stop.
func (e *Engine) Transitions() (<-chan netstate.Transition, func()) {
	return e.monitor.Subscribe()
}

func (e *Engine) AddRecord(ctx context.Context, in models.NewTodo) (models.MutationResult, error) {
	return e.records.Add(ctx, in)
}

func (e *Engine) UpdateRecord(ctx context.Context, id string, patch models.TodoPatch) (models.MutationResult, error) {
	return e.records.Update(ctx, id, patch)
}

func (e *Engine) ToggleRecord(ctx context.Context, id string, completed bool) (models.MutationResult, error) {
	return e.records.Toggle(ctx, id, completed)
}

func (e *Engine) DeleteRecord(ctx context.Context, id string) (models.MutationResult, error) {
	return e.records.Delete(ctx, id)
}

// ListRecords returns local records, refreshed from the remote first when
// a genuine session is online.
func (e *Engine) ListRecords(ctx context.Context) ([]*models.Todo, error) {
	return e.records.List(ctx)
}

func (e *Engine) GetRecord(ctx context.Context, id string) (*models.Todo, error) {
	return e.records.Get(ctx, id)
}

func (e *Engine) ListPendingCount(ctx context.Context) (int, error) {
	return e.sync.PendingCount(ctx)
}

func (e *Engine) IsSyncing() bool {
	return e.sync.IsSyncing()
}

// Sync runs one drain cycle now.
func (e *Engine) Sync(ctx context.Context) (models.SyncReport, error) {
	return e.sync.Drain(ctx)
}

func (e *Engine) CacheCredentials(ctx context.Context, email, password, userID string) error {
	return e.cache.Cache(ctx, email, password, userID)
}

func (e *Engine) VerifyCachedCredentials(ctx context.Context, email, password string) models.Verification {
	return e.cache.Verify(ctx, email, password)
}

func (e *Engine) ClearCredentialCache(ctx context.Context) error {
	return e.cache.Clear(ctx)
}

func (e *Engine) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	return e.auth.SignIn(ctx, email, password)
}

func (e *Engine) SignOut(ctx context.Context) error {
	return e.auth.SignOut(ctx)
}

func (e *Engine) Register(ctx context.Context, email, password string) error {
	return e.auth.Register(ctx, email, password)
}

// Restore resumes an offline session left by a previous run, if any.
func (e *Engine) Restore(ctx context.Context) (models.Session, error) {
	return e.auth.Restore(ctx)
}

func (e *Engine) Session() models.Session {
	return e.auth.Session()
}

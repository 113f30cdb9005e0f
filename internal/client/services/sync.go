package services

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/logging"
)

// Notifier receives the report of every drain cycle that found work.
type Notifier func(models.SyncReport)

// SyncService replays the outbox against the remote service.
//
// A drain cycle walks pending entries in sequence order. Confirmed and
// duplicate entries are removed and their records become clean. Entries
// rejected as unauthenticated are dropped and their records stay dirty.
// Any other failure ends the cycle, so later entries of the same record
// never overtake an unresolved one. Only one cycle runs at a time.
type SyncService interface {
	Drain(ctx context.Context) (models.SyncReport, error)
	// Run drains on start when online and on every offline->online
	// transition until ctx is done.
	Run(ctx context.Context)
	// Trigger starts a drain in the background.
	Trigger()
	IsSyncing() bool
	PendingCount(ctx context.Context) (int, error)
	// Wait blocks until triggered drains have finished.
	Wait()
}

type syncService struct {
	store    store
	client   client.Client
	auth     SessionProvider
	monitor  Monitor
	inflight *Inflight
	notify   Notifier
	logger   logging.Logger

	// callTimeout bounds every replayed call so a stalled connection
	// cannot hold the cycle open.
	callTimeout time.Duration

	syncing atomic.Bool
	wg      sync.WaitGroup
}

// NewSyncService returns the outbox drainer. n may be nil. f must be the
// tracker given to NewRecordService so a drain never replays an entry
// whose immediate attempt is still running.
func NewSyncService(c client.Client, db *sql.DB, auth SessionProvider, m Monitor, f *Inflight,
	n Notifier, l logging.Logger) SyncService {
	return &syncService{
		store:    store{db: db},
		client:   c,
		auth:     auth,
		monitor:  m,
		inflight: f,
		notify:   n,
		logger:   l.With("module", "sync"),

		callTimeout: RemoteCallTimeout,
	}
}

func (s *syncService) IsSyncing() bool {
	return s.syncing.Load()
}

func (s *syncService) PendingCount(ctx context.Context) (int, error) {
	return s.store.outbox().Count(ctx)
}

func (s *syncService) Drain(ctx context.Context) (models.SyncReport, error) {
	if !s.syncing.CompareAndSwap(false, true) {
		return models.SyncReport{Skipped: true}, nil
	}
	defer s.syncing.Store(false)

	if !s.monitor.Online() || !s.auth.IsGenuine() {
		return models.SyncReport{Skipped: true}, nil
	}

	ob := s.store.outbox()
	entries, err := ob.ListPending(ctx)
	if err != nil {
		return models.SyncReport{}, err
	}
	if len(entries) == 0 {
		return models.SyncReport{}, nil
	}

	s.logger.Info(ctx, "drain started", "pending", len(entries))
	report, err := s.drain(ctx, entries)
	if err != nil {
		return report, err
	}

	if report.Remaining, err = ob.Count(ctx); err != nil {
		return report, err
	}
	s.logger.Info(ctx, "drain finished",
		"synced", report.Synced, "duplicates", report.Duplicates,
		"abandoned", report.Abandoned, "failed", report.Failed, "remaining", report.Remaining)

	if s.notify != nil {
		s.notify(report)
	}
	return report, nil
}

func (s *syncService) drain(ctx context.Context, entries []*models.OutboxEntry) (models.SyncReport, error) {
	var report models.SyncReport
	ob := s.store.outbox()

	for _, e := range entries {
		if err := s.inflight.wait(ctx, e.ID); err != nil {
			return report, nil
		}
		exists, err := ob.Exists(ctx, e.ID)
		if err != nil {
			return report, err
		}
		if !exists {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		rerr := replay(callCtx, s.client, e)
		cancel()
		switch {
		case rerr == nil:
			if err := s.store.settle(ctx, e); err != nil {
				return report, err
			}
			report.Synced++

		case client.Classify(rerr) == client.KindDuplicate:
			s.logger.Debug(ctx, "entry already applied remotely", "entry", e.ID, "record", e.RecordID)
			if err := s.store.settle(ctx, e); err != nil {
				return report, err
			}
			report.Duplicates++

		case client.Classify(rerr) == client.KindUnauthenticated:
			s.logger.Warn(ctx, "entry rejected by remote session, dropping it", "entry", e.ID, "record", e.RecordID)
			if _, err := ob.Dequeue(ctx, e.ID); err != nil {
				return report, err
			}
			report.Abandoned++

		default:
			s.logger.Error(ctx, "sync failed, stopping drain", "entry", e.ID, "action", e.Action, "error", rerr)
			report.Failed++
			return report, nil
		}
	}
	return report, nil
}

func (s *syncService) Trigger() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Drain(context.Background()); err != nil {
			s.logger.Error(context.Background(), "triggered drain failed", "error", err)
		}
	}()
}

func (s *syncService) Wait() {
	s.wg.Wait()
}

func (s *syncService) Run(ctx context.Context) {
	transitions, unsubscribe := s.monitor.Subscribe()
	defer unsubscribe()

	drain := func() {
		if _, err := s.Drain(ctx); err != nil {
			s.logger.Error(ctx, "drain failed", "error", err)
		}
	}

	if s.monitor.Online() {
		drain()
	}
	for {
		select {
		case tr, ok := <-transitions:
			if !ok {
				return
			}
			if tr.Online {
				drain()
			}
		case <-ctx.Done():
			return
		}
	}
}

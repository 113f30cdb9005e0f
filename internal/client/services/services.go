// Package services contains the application services of the GophSync
// client: authentication with offline fallback, optimistic record
// mutations, and the outbox drain loop.
//
// All services share one SQLite handle. A local write and its outbox entry
// are committed in a single transaction, and so are the removal of a
// confirmed entry and the dirty-flag update of its record.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/netstate"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/records"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
)

// RemoteCallTimeout bounds a remote call that nobody waits for anymore.
const RemoteCallTimeout = 30 * time.Second

// Monitor is the connectivity signal consumed by the services.
type Monitor interface {
	Online() bool
	Subscribe() (<-chan netstate.Transition, func())
}

// SessionProvider tells whether remote calls may be attempted.
type SessionProvider interface {
	Session() models.Session
	IsGenuine() bool
}

// store hands out repositories bound either to the database or to a tx.
type store struct {
	db *sql.DB
}

func (s store) records() records.Repository {
	return records.NewSQLiteRepository(s.db)
}

func (s store) outbox() outbox.Repository {
	return outbox.NewSQLiteRepository(s.db)
}

func (s store) inTx(ctx context.Context, fn func(ctx context.Context, recs records.Repository, ob outbox.Repository) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, records.NewSQLiteRepository(tx), outbox.NewSQLiteRepository(tx))
	})
}

// settle removes a confirmed entry and clears the dirty flag of its record
// unless another entry for the same record is still queued.
func (s store) settle(ctx context.Context, e *models.OutboxEntry) error {
	return s.inTx(ctx, func(ctx context.Context, recs records.Repository, ob outbox.Repository) error {
		if _, err := ob.Dequeue(ctx, e.ID); err != nil {
			return err
		}
		pending, err := ob.HasPendingFor(ctx, e.RecordID)
		if err != nil || pending {
			return err
		}
		return recs.Update(ctx, e.RecordID, models.TodoPatch{Dirty: models.Ptr(false)})
	})
}

// replay performs the remote call an entry stands for.
func replay(ctx context.Context, remote client.Client, e *models.OutboxEntry) error {
	switch e.Action {
	case models.ActionInsert:
		return remote.Insert(ctx, e.Entity, e.Payload)
	case models.ActionUpdate:
		return remote.Update(ctx, e.Entity, e.RecordID, e.Payload.Fields())
	case models.ActionDelete:
		return remote.Delete(ctx, e.Entity, e.RecordID)
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
}

// confirmed reports whether the remote has the change of a replayed entry.
func confirmed(err error) bool {
	return err == nil || client.Classify(err) == client.KindDuplicate
}

// Inflight tracks immediate remote attempts that may still be running, so
// the drain loop does not replay the same entry next to them.
type Inflight struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

// NewInflight returns an empty tracker. The record and sync services of one
// engine must share the same instance.
func NewInflight() *Inflight {
	return &Inflight{m: make(map[string]chan struct{})}
}

func (f *Inflight) begin(entryID string) (done func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.m[entryID] = ch
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.m, entryID)
		f.mu.Unlock()
		close(ch)
	}
}

// wait blocks until the attempt for entryID, if any, is over.
func (f *Inflight) wait(ctx context.Context, entryID string) error {
	f.mu.Lock()
	ch, ok := f.m[entryID]
	f.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package outbox persists the ordered log of mutations that still have to
// be applied on the remote service.
//
// Entries are append-only. A new local change enqueues a new entry, queued
// entries are never edited, and an entry leaves the log only through
// Dequeue after the remote confirmed it (or through Clear on account
// switch). Replay order is the sequence key ascending.
package outbox

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
)

type Repository interface {
	// Enqueue assigns an id, a sequence key and the enqueue time, and
	// persists the entry before returning it.
	Enqueue(ctx context.Context, entity string, action models.Action, recordID string, payload models.Payload) (*models.OutboxEntry, error)

	// Dequeue removes the entry. removed is false when the entry was
	// already gone, i.e. somebody else applied it first.
	Dequeue(ctx context.Context, entryID string) (removed bool, err error)

	ListPending(ctx context.Context) ([]*models.OutboxEntry, error)
	Exists(ctx context.Context, entryID string) (bool, error)
	Count(ctx context.Context) (int, error)

	// LastSeq is the highest sequence key ever assigned, 0 before the first
	// Enqueue. It does not go down when entries leave the log.
	LastSeq(ctx context.Context) (int64, error)

	// HasPendingFor reports whether any entry references recordID.
	HasPendingFor(ctx context.Context, recordID string) (bool, error)

	// HasOlderFor reports whether an entry for recordID precedes seq.
	HasOlderFor(ctx context.Context, recordID string, seq int64) (bool, error)

	Clear(ctx context.Context) error
}

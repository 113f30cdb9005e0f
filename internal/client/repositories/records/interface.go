package records

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
)

// Order selects the sort order of List.
type Order int

const (
	OrderCreatedDesc Order = iota
	OrderCreatedAsc
	OrderUpdatedDesc
)

// Repository describes Local Store operations on todo records.
type Repository interface {
	// Put inserts or fully replaces the record with the same id.
	Put(ctx context.Context, todo *models.Todo) error

	// BulkPut upserts many records; last write wins per id.
	BulkPut(ctx context.Context, todos []*models.Todo) error

	// Get returns the record or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Todo, error)

	// Update merges the non-nil fields of patch. Missing ids are ignored.
	Update(ctx context.Context, id string, patch models.TodoPatch) error

	// Delete removes the record. Missing ids are ignored.
	Delete(ctx context.Context, id string) error

	// List returns all records in the given order.
	List(ctx context.Context, order Order) ([]*models.Todo, error)

	// CountDirty returns how many records carry unconfirmed changes.
	CountDirty(ctx context.Context) (int, error)

	// Clear removes every record. Used on account switch only.
	Clear(ctx context.Context) error
}

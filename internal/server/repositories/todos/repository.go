package todos

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/server/models"
)

// Repository stores records scoped by owner. Insert returns
// common.ErrAlreadyExists for a taken id. Update and Delete of a row the
// owner does not have are no-ops.
type Repository interface {
	Insert(ctx context.Context, t *models.Todo) error
	Update(ctx context.Context, userID, id string, u models.TodoUpdate) error
	Delete(ctx context.Context, userID, id string) error
	// List returns the owner's records, newest first.
	List(ctx context.Context, userID string) ([]*models.Todo, error)
}

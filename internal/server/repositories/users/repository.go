package users

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/server/models"
)

// Repository stores accounts. Create returns common.ErrAlreadyExists for a
// taken email; GetUserByEmail returns common.ErrorNotFound for an unknown one.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

package client

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
)

type Client interface {
	Close() error
	Register(ctx context.Context, email, password string) error
	// Login returns the remote user id and keeps the session token.
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error

	Insert(ctx context.Context, entity string, payload models.Payload) error
	Update(ctx context.Context, entity, id string, fields models.Payload) error
	Delete(ctx context.Context, entity, id string) error
	List(ctx context.Context, entity string) ([]models.Payload, error)
}

// Package db picks the server storage backend and hands out repositories.
package db

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/server/repositories/todos"
	"github.com/dmitrijs2005/gophsync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Users() users.Repository
	Todos() todos.Repository
	Close() error
}

// NewRepositoryManager connects to Postgres when dsn is set and falls back
// to in-memory storage otherwise.
func NewRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewInMemoryRepositoryManager(), nil
	}
	return NewPostgresRepositoryManager(ctx, dsn)
}

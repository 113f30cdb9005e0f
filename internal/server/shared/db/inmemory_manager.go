package db

import (
	"context"

	"github.com/dmitrijs2005/gophsync/internal/server/repositories/todos"
	"github.com/dmitrijs2005/gophsync/internal/server/repositories/users"
)

type InMemoryRepositoryManager struct {
	users *users.InMemoryRepository
	todos *todos.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users: users.NewInMemoryRepository(),
		todos: todos.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Todos() todos.Repository {
	return m.todos
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}

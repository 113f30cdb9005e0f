package todos

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/server/models"
)

// InMemoryRepository keeps records in a map keyed by id.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows map[string]models.Todo
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{rows: make(map[string]models.Todo)}
}

func (r *InMemoryRepository) Insert(ctx context.Context, t *models.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[t.ID]; ok {
		return common.ErrAlreadyExists
	}
	r.rows[t.ID] = *t
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, userID, id string, u models.TodoUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.rows[id]
	if !ok || t.UserID != userID {
		return nil
	}
	u.Apply(&t)
	r.rows[id] = t
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.rows[id]; ok && t.UserID == userID {
		delete(r.rows, id)
	}
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context, userID string) ([]*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Todo, 0)
	for _, t := range r.rows {
		if t.UserID == userID {
			t := t
			result = append(result, &t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/server/models"
	"github.com/dmitrijs2005/gophsync/internal/server/shared/db"
)

// TodoService applies replayed client mutations to the caller's records.
type TodoService struct {
	repomanager db.RepositoryManager
}

func NewTodoService(m db.RepositoryManager) *TodoService {
	return &TodoService{repomanager: m}
}

func validPriority(p string) bool {
	switch p {
	case "low", "medium", "high":
		return true
	}
	return false
}

// Insert stores a full record for userID. The owner in the record itself is
// ignored. A taken id yields common.ErrAlreadyExists.
func (s *TodoService) Insert(ctx context.Context, userID string, record map[string]any) error {
	t, err := models.TodoFromMap(record)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorInvalidArgument)
	}
	if !validPriority(t.Priority) {
		return fmt.Errorf("%w: priority %q", common.ErrorInvalidArgument, t.Priority)
	}
	t.UserID = userID
	return s.repomanager.Todos().Insert(ctx, t)
}

// Update merges fields into the record. Missing records are left alone.
func (s *TodoService) Update(ctx context.Context, userID, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", common.ErrorInvalidArgument)
	}
	u, err := models.TodoUpdateFromMap(fields)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	if u.Title != nil && *u.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorInvalidArgument)
	}
	if u.Priority != nil && !validPriority(*u.Priority) {
		return fmt.Errorf("%w: priority %q", common.ErrorInvalidArgument, *u.Priority)
	}
	return s.repomanager.Todos().Update(ctx, userID, id, u)
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", common.ErrorInvalidArgument)
	}
	return s.repomanager.Todos().Delete(ctx, userID, id)
}

func (s *TodoService) List(ctx context.Context, userID string) ([]*models.Todo, error) {
	return s.repomanager.Todos().List(ctx, userID)
}

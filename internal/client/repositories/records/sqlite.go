package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
)

const selectColumns = `id, title, description, priority, completed, created_at, updated_at, user_id, dirty`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, t *models.Todo) error {
	query := `INSERT INTO todos (id, title, description, priority, completed, created_at, updated_at, user_id, dirty)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				description = excluded.description,
				priority = excluded.priority,
				completed = excluded.completed,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				user_id = excluded.user_id,
				dirty = excluded.dirty
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, string(t.Priority), boolToInt(t.Completed),
		t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli(), t.UserID, boolToInt(t.Dirty))
	if err != nil {
		return fmt.Errorf("failed to upsert todo %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) BulkPut(ctx context.Context, todos []*models.Todo) error {
	for _, t := range todos {
		if err := r.Put(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, p models.TodoPatch) error {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets, args = append(sets, "title = ?"), append(args, *p.Title)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if p.Priority != nil {
		sets, args = append(sets, "priority = ?"), append(args, string(*p.Priority))
	}
	if p.Completed != nil {
		sets, args = append(sets, "completed = ?"), append(args, boolToInt(*p.Completed))
	}
	if p.UpdatedAt != nil {
		sets, args = append(sets, "updated_at = ?"), append(args, p.UpdatedAt.UnixMilli())
	}
	if p.Dirty != nil {
		sets, args = append(sets, "dirty = ?"), append(args, boolToInt(*p.Dirty))
	}
	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, append(args, id)...); err != nil {
		return fmt.Errorf("failed to update todo %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete todo %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, order Order) ([]*models.Todo, error) {
	var orderBy string
	switch order {
	case OrderCreatedAsc:
		orderBy = "created_at ASC, id ASC"
	case OrderUpdatedDesc:
		orderBy = "updated_at DESC, id ASC"
	default:
		orderBy = "created_at DESC, id ASC"
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM todos ORDER BY `+orderBy)
	if err != nil {
		return nil, fmt.Errorf("failed to select todos: %w", err)
	}
	defer rows.Close()

	var result []*models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CountDirty(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE dirty = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count dirty todos: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return fmt.Errorf("failed to clear todos: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*models.Todo, error) {
	var (
		t                  models.Todo
		priority           string
		completed, dirty   int
		createdAt, updated int64
	)
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &priority, &completed,
		&createdAt, &updated, &t.UserID, &dirty); err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)
	t.Completed = completed == 1
	t.Dirty = dirty == 1
	t.CreatedAt = time.UnixMilli(createdAt)
	t.UpdatedAt = time.UnixMilli(updated)
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

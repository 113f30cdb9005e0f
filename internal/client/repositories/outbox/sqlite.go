package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, entity string, action models.Action,
	recordID string, payload models.Payload) (*models.OutboxEntry, error) {

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	e := &models.OutboxEntry{
		ID:         uuid.NewString(),
		Entity:     entity,
		Action:     action,
		RecordID:   recordID,
		Payload:    payload,
		EnqueuedAt: r.now(),
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox (id, entity, action, record_id, payload, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Entity, string(e.Action), e.RecordID, string(raw), e.EnqueuedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s %s: %w", action, recordID, err)
	}

	if e.Seq, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read outbox seq: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) Dequeue(ctx context.Context, entryID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, entryID)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue %s: %w", entryID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to dequeue %s: %w", entryID, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.OutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, id, entity, action, record_id, payload, enqueued_at
		FROM outbox ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	defer rows.Close()

	var result []*models.OutboxEntry
	for rows.Next() {
		var (
			e          models.OutboxEntry
			action     string
			raw        string
			enqueuedAt int64
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.Entity, &action, &e.RecordID, &raw, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		if e.Action, err = models.ParseAction(action); err != nil {
			return nil, fmt.Errorf("outbox entry %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Payload); err != nil {
			return nil, fmt.Errorf("outbox entry %s: bad payload: %w", e.ID, err)
		}
		e.EnqueuedAt = time.UnixMilli(enqueuedAt)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, entryID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM outbox WHERE id = ?)`, entryID)
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'outbox'), 0)`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox sequence: %w", err)
	}
	return seq, nil
}

func (r *SQLiteRepository) HasPendingFor(ctx context.Context, recordID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM outbox WHERE record_id = ?)`, recordID)
}

func (r *SQLiteRepository) HasOlderFor(ctx context.Context, recordID string, seq int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM outbox WHERE record_id = ? AND seq < ?)`, recordID, seq)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox`); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var found int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("outbox lookup: %w", err)
	}
	return found == 1, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/records"
	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/timex"
	"github.com/google/uuid"
)

// ImmediateSyncTimeout is how long a mutation waits for its remote call.
const ImmediateSyncTimeout = 4 * time.Second

// RecordService applies mutations optimistically: the local write and the
// outbox entry are committed first, then one remote attempt is raced
// against a timeout. A nil error means the change is stored locally,
// whatever Synced says.
type RecordService interface {
	Add(ctx context.Context, in models.NewTodo) (models.MutationResult, error)
	Update(ctx context.Context, id string, patch models.TodoPatch) (models.MutationResult, error)
	Toggle(ctx context.Context, id string, completed bool) (models.MutationResult, error)
	Delete(ctx context.Context, id string) (models.MutationResult, error)

	// List refreshes from the remote when possible and returns local
	// records, newest first.
	List(ctx context.Context) ([]*models.Todo, error)
	Get(ctx context.Context, id string) (*models.Todo, error)

	// Wait blocks until abandoned remote attempts have finished.
	Wait()
}

type recordService struct {
	store    store
	client   client.Client
	auth     SessionProvider
	monitor  Monitor
	inflight *Inflight
	clock    timex.Clock
	timeout  time.Duration
	logger   logging.Logger

	wg sync.WaitGroup
}

// NewRecordService wires the optimistic mutation path.
//
// Parameters:
//   - c: remote gateway used for the immediate attempt and the list refresh.
//   - db: local database holding records and the outbox.
//   - auth: decides whether a mutation is allowed and whether the remote
//     may be called.
//   - m: connectivity signal; no immediate attempt is made while offline.
//   - f: tracker shared with the sync service.
//   - clock: source of created/updated timestamps.
//   - timeout: how long a mutation waits for its remote call; non-positive
//     means ImmediateSyncTimeout.
//   - l: logger.
func NewRecordService(c client.Client, db *sql.DB, auth SessionProvider, m Monitor, f *Inflight,
	clock timex.Clock, timeout time.Duration, l logging.Logger) RecordService {
	if timeout <= 0 {
		timeout = ImmediateSyncTimeout
	}
	return &recordService{
		store:    store{db: db},
		client:   c,
		auth:     auth,
		monitor:  m,
		inflight: f,
		clock:    clock,
		timeout:  timeout,
		logger:   l.With("module", "records"),
	}
}

// now is truncated to the stored precision.
func (s *recordService) now() time.Time {
	return time.UnixMilli(s.clock.Now().UnixMilli())
}

func (s *recordService) requireSession() (models.Session, error) {
	sess := s.auth.Session()
	if !sess.Active() {
		return sess, fmt.Errorf("not signed in: %w", common.ErrorUnauthorized)
	}
	return sess, nil
}

func (s *recordService) Add(ctx context.Context, in models.NewTodo) (models.MutationResult, error) {
	sess, err := s.requireSession()
	if err != nil {
		return models.MutationResult{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.MutationResult{}, fmt.Errorf("title is required: %w", common.ErrorInvalidArgument)
	}
	priority, err := models.ParsePriority(string(in.Priority))
	if err != nil {
		return models.MutationResult{}, err
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	todo := &models.Todo{
		ID:          id,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      sess.UserID,
		Dirty:       true,
	}

	return s.commit(ctx, id, models.ActionInsert, models.InsertPayload(todo),
		func(ctx context.Context, recs records.Repository) error {
			// A reused id must not overwrite a record the remote may already hold.
			_, err := recs.Get(ctx, id)
			switch {
			case err == nil:
				return common.ErrAlreadyExists
			case !errors.Is(err, common.ErrorNotFound):
				return err
			}
			return recs.Put(ctx, todo)
		})
}

func (s *recordService) Update(ctx context.Context, id string, patch models.TodoPatch) (models.MutationResult, error) {
	if _, err := s.requireSession(); err != nil {
		return models.MutationResult{}, err
	}
	if patch.Empty() {
		return models.MutationResult{}, fmt.Errorf("nothing to update: %w", common.ErrorInvalidArgument)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.MutationResult{}, fmt.Errorf("title is required: %w", common.ErrorInvalidArgument)
	}
	if patch.Priority != nil {
		if _, err := models.ParsePriority(string(*patch.Priority)); err != nil {
			return models.MutationResult{}, err
		}
	}

	now := s.now()
	payload := models.UpdatePayload(id, patch, now)
	local := patch
	local.UpdatedAt = &now
	local.Dirty = models.Ptr(true)

	return s.commit(ctx, id, models.ActionUpdate, payload,
		func(ctx context.Context, recs records.Repository) error { return recs.Update(ctx, id, local) })
}

func (s *recordService) Toggle(ctx context.Context, id string, completed bool) (models.MutationResult, error) {
	return s.Update(ctx, id, models.TodoPatch{Completed: &completed})
}

func (s *recordService) Delete(ctx context.Context, id string) (models.MutationResult, error) {
	if _, err := s.requireSession(); err != nil {
		return models.MutationResult{}, err
	}
	return s.commit(ctx, id, models.ActionDelete, models.DeletePayload(id),
		func(ctx context.Context, recs records.Repository) error { return recs.Delete(ctx, id) })
}

// commit writes the local change and its outbox entry atomically, then
// makes the immediate remote attempt.
func (s *recordService) commit(ctx context.Context, id string, action models.Action, payload models.Payload,
	write func(ctx context.Context, recs records.Repository) error) (models.MutationResult, error) {

	var entry *models.OutboxEntry
	err := s.store.inTx(ctx, func(ctx context.Context, recs records.Repository, ob outbox.Repository) error {
		if err := write(ctx, recs); err != nil {
			return err
		}
		var err error
		entry, err = ob.Enqueue(ctx, common.EntityTodo, action, id, payload)
		return err
	})
	if err != nil {
		return models.MutationResult{}, fmt.Errorf("%s %s: %w", action, id, err)
	}

	return models.MutationResult{ID: id, Synced: s.attempt(ctx, entry)}, nil
}

// attempt races one remote call for entry against the timeout. The call is
// not cancelled when the race is lost; if it succeeds later the entry is
// settled then, unless the drain loop got there first.
func (s *recordService) attempt(ctx context.Context, entry *models.OutboxEntry) bool {
	if !s.monitor.Online() || !s.auth.IsGenuine() {
		return false
	}
	older, err := s.store.outbox().HasOlderFor(ctx, entry.RecordID, entry.Seq)
	if err != nil || older {
		return false
	}

	result := make(chan bool, 1)
	done := s.inflight.begin(entry.ID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer done()

		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), RemoteCallTimeout)
		defer cancel()

		err := replay(bg, s.client, entry)
		if !confirmed(err) {
			s.logger.Debug(bg, "immediate sync failed, entry stays queued", "entry", entry.ID, "error", err)
			result <- false
			return
		}
		if err := s.store.settle(bg, entry); err != nil {
			s.logger.Error(bg, "failed to settle entry", "entry", entry.ID, "error", err)
			result <- false
			return
		}
		result <- true
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case ok := <-result:
		return ok
	case <-timer.C:
		s.logger.Info(ctx, "immediate sync timed out, left for background sync", "entry", entry.ID)
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *recordService) Wait() {
	s.wg.Wait()
}

func (s *recordService) Get(ctx context.Context, id string) (*models.Todo, error) {
	return s.store.records().Get(ctx, id)
}

func (s *recordService) List(ctx context.Context) ([]*models.Todo, error) {
	if s.monitor.Online() && s.auth.IsGenuine() {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn(ctx, "remote refresh failed, showing local data", "error", err)
		}
	}
	return s.store.records().List(ctx, records.OrderCreatedDesc)
}

// refresh mirrors the remote list into the local store. Records with
// unconfirmed local changes or queued entries are left alone.
func (s *recordService) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	before, err := mark(ctx, s.store.outbox())
	if err != nil {
		return err
	}

	rows, err := s.client.List(ctx, common.EntityTodo)
	if err != nil {
		return err
	}

	remote := make(map[string]*models.Todo, len(rows))
	for _, row := range rows {
		t, err := models.TodoFromPayload(row)
		if err != nil {
			s.logger.Warn(ctx, "skipping malformed remote row", "error", err)
			continue
		}
		remote[t.ID] = t
	}

	return s.store.inTx(ctx, func(ctx context.Context, recs records.Repository, ob outbox.Repository) error {
		// A mutation enqueued or settled while List was in flight makes the
		// snapshot stale; the next refresh picks the change up.
		after, err := mark(ctx, ob)
		if err != nil {
			return err
		}
		if after != before {
			s.logger.Debug(ctx, "outbox changed during refresh, keeping local data")
			return nil
		}

		local, err := recs.List(ctx, records.OrderCreatedAsc)
		if err != nil {
			return err
		}
		byID := make(map[string]*models.Todo, len(local))
		for _, t := range local {
			byID[t.ID] = t
		}

		keep := func(id string) (bool, error) {
			if l, ok := byID[id]; ok && l.Dirty {
				return true, nil
			}
			return ob.HasPendingFor(ctx, id)
		}

		var put []*models.Todo
		for id, t := range remote {
			skip, err := keep(id)
			if err != nil {
				return err
			}
			if !skip {
				put = append(put, t)
			}
		}
		if err := recs.BulkPut(ctx, put); err != nil {
			return err
		}

		for id := range byID {
			if _, ok := remote[id]; ok {
				continue
			}
			skip, err := keep(id)
			if err != nil {
				return err
			}
			if !skip {
				if err := recs.Delete(ctx, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// outboxMark changes whenever an entry is enqueued or removed.
type outboxMark struct {
	lastSeq int64
	count   int
}

func mark(ctx context.Context, ob outbox.Repository) (outboxMark, error) {
	seq, err := ob.LastSeq(ctx)
	if err != nil {
		return outboxMark{}, err
	}
	n, err := ob.Count(ctx)
	if err != nil {
		return outboxMark{}, err
	}
	return outboxMark{lastSeq: seq, count: n}, nil
}

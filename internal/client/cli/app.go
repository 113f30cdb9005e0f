package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/gophsync/internal/client/engine"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/netstate"
)

// Engine is the part of *engine.Engine the REPL drives.
type Engine interface {
	Register(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context) error
	Restore(ctx context.Context) (models.Session, error)
	Session() models.Session
	Online() bool
	Transitions() (<-chan netstate.Transition, func())

	AddRecord(ctx context.Context, in models.NewTodo) (models.MutationResult, error)
	UpdateRecord(ctx context.Context, id string, patch models.TodoPatch) (models.MutationResult, error)
	ToggleRecord(ctx context.Context, id string, completed bool) (models.MutationResult, error)
	DeleteRecord(ctx context.Context, id string) (models.MutationResult, error)
	ListRecords(ctx context.Context) ([]*models.Todo, error)
	GetRecord(ctx context.Context, id string) (*models.Todo, error)
	ListPendingCount(ctx context.Context) (int, error)
	IsSyncing() bool
	Sync(ctx context.Context) (models.SyncReport, error)
}

var _ Engine = (*engine.Engine)(nil)

type App struct {
	engine Engine
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(e Engine) *App {
	return &App{engine: e, reader: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (a *App) isLoggedIn() bool {
	return a.engine.Session().Active()
}

// getStatus renders the prompt prefix, e.g. "(alice@example.org online)".
func (a *App) getStatus() string {
	mode := onlineLabel(a.engine.Online())
	s := a.engine.Session()
	if s.Active() {
		return fmt.Sprintf("(%s %s)", s.Email, mode)
	}
	return fmt.Sprintf("(%s)", mode)
}

// watchTransitions reports connectivity changes until ctx is done.
func (a *App) watchTransitions(ctx context.Context) {
	ch, cancel := a.engine.Transitions()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ch:
			if !ok {
				return
			}
			if t.Online {
				log.Println("Switched to online mode")
			} else {
				log.Println("Switched to offline mode")
			}
		}
	}
}

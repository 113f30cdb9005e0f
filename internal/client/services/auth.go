package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophsync/internal/client/client"
	"github.com/dmitrijs2005/gophsync/internal/client/credcache"
	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/records"
	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/logging"
)

var (
	ErrOfflineExpired     = errors.New("offline credentials expired, connect to the internet to sign in")
	ErrInvalidCredentials = errors.New("invalid email or password, or no previous online sign-in")
)

// ownerKey remembers whose records are in the local database.
const ownerKey = "owner"

// AuthService signs the user in online when possible and from the
// credential cache otherwise.
//
// Contract:
//   - SignIn: remote login when online; on transport failure or when offline,
//     verify against the credential cache and start an offline-cache session.
//   - Restore: bring back an offline-cache session after a restart.
//   - SignOut: end the session; erase cached credentials when online.
//   - Session / IsGenuine: consulted before any remote call.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (models.Session, error)
	Restore(ctx context.Context) (models.Session, error)
	SignOut(ctx context.Context) error
	Register(ctx context.Context, email, password string) error
	Session() models.Session
	IsGenuine() bool
	// OnGenuineSession registers fn to run after each online sign-in.
	OnGenuineSession(fn func())
}

type authService struct {
	client  client.Client
	cache   *credcache.Cache
	monitor Monitor
	db      *sql.DB
	logger  logging.Logger

	mu        sync.RWMutex
	session   models.Session
	onGenuine func()
}

// NewAuthService returns the sign-in gateway. db is used to detect an
// account switch and wipe the previous user's local data.
func NewAuthService(c client.Client, cache *credcache.Cache, m Monitor, db *sql.DB, l logging.Logger) AuthService {
	return &authService{
		client:  c,
		cache:   cache,
		monitor: m,
		db:      db,
		logger:  l.With("module", "auth"),
	}
}

func (a *authService) Session() models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *authService) IsGenuine() bool {
	return a.Session().Genuine()
}

func (a *authService) OnGenuineSession(fn func()) {
	a.mu.Lock()
	a.onGenuine = fn
	a.mu.Unlock()
}

func (a *authService) setSession(s models.Session) {
	a.mu.Lock()
	a.session = s
	hook := a.onGenuine
	a.mu.Unlock()

	if s.Genuine() && hook != nil {
		hook()
	}
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required: %w", common.ErrorInvalidArgument)
	}
	return email, nil
}

func (a *authService) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return models.Session{}, err
	}

	if a.monitor.Online() {
		userID, err := a.client.Login(ctx, email, password)
		switch {
		case err == nil:
			return a.onlineSignIn(ctx, email, password, userID)
		case errors.Is(err, client.ErrUnavailable):
			a.logger.Info(ctx, "online sign-in failed, trying offline", "error", err)
		case client.Classify(err) == client.KindUnauthenticated:
			return models.Session{}, ErrInvalidCredentials
		default:
			return models.Session{}, fmt.Errorf("sign in: %w", err)
		}
	}

	v := a.cache.Verify(ctx, email, password)
	if v.Expired {
		return models.Session{}, ErrOfflineExpired
	}
	if !v.Valid {
		return models.Session{}, ErrInvalidCredentials
	}

	userID := v.UserID
	if userID == "" {
		userID = email
	}
	if err := a.cache.SaveSession(ctx, email, userID); err != nil {
		return models.Session{}, err
	}

	s := models.Session{Email: email, UserID: userID, Mode: models.SessionOffline}
	a.setSession(s)
	a.logger.Info(ctx, "signed in offline", "email", email)
	return s, nil
}

func (a *authService) onlineSignIn(ctx context.Context, email, password, userID string) (models.Session, error) {
	if err := a.switchAccount(ctx, userID); err != nil {
		return models.Session{}, err
	}
	if err := a.cache.Cache(ctx, email, password, userID); err != nil {
		return models.Session{}, fmt.Errorf("cache credentials: %w", err)
	}
	if err := a.cache.ClearSession(ctx); err != nil {
		return models.Session{}, err
	}

	s := models.Session{Email: email, UserID: userID, Mode: models.SessionOnline}
	a.setSession(s)
	a.logger.Info(ctx, "signed in", "email", email)
	return s, nil
}

// switchAccount wipes local records and the outbox when a different
// account signs in on this installation.
func (a *authService) switchAccount(ctx context.Context, userID string) error {
	meta := metadata.NewSQLiteRepository(a.db)
	prev, err := meta.Get(ctx, ownerKey)
	if err != nil {
		return err
	}
	if prev != nil && string(prev) == userID {
		return nil
	}

	if prev != nil {
		a.logger.Warn(ctx, "account switch, dropping local data", "previous", string(prev))
		err := store{db: a.db}.inTx(ctx, func(ctx context.Context, recs records.Repository, ob outbox.Repository) error {
			if err := recs.Clear(ctx); err != nil {
				return err
			}
			return ob.Clear(ctx)
		})
		if err != nil {
			return err
		}
	}
	return meta.Set(ctx, ownerKey, []byte(userID))
}

func (a *authService) Restore(ctx context.Context) (models.Session, error) {
	if s := a.Session(); s.Active() {
		return s, nil
	}
	off, err := a.cache.LoadSession(ctx)
	if err != nil || off == nil {
		return models.Session{}, err
	}

	s := models.Session{Email: off.Email, UserID: off.UserID, Mode: models.SessionOffline}
	a.setSession(s)
	a.logger.Info(ctx, "offline session restored", "email", off.Email)
	return s, nil
}

// SignOut ends the session. Online, the credential cache is erased too.
// Offline it is kept, otherwise the user could not sign back in until the
// network returns.
func (a *authService) SignOut(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "remote logout failed", "error", err)
	}
	a.setSession(models.Session{})

	if !a.monitor.Online() {
		return a.cache.ClearSession(ctx)
	}
	return a.cache.Clear(ctx)
}

func (a *authService) Register(ctx context.Context, email, password string) error {
	email, err := validateCredentials(email, password)
	if err != nil {
		return err
	}
	if err := a.client.Register(ctx, email, password); err != nil {
		if client.Classify(err) == client.KindDuplicate {
			return fmt.Errorf("register %s: %w", email, common.ErrAlreadyExists)
		}
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Package credcache lets a user sign in without network access.
//
// After every successful online login the password is turned into a salted
// one-way digest and stored in a single slot together with the time of
// validation. Offline sign-in compares against that digest for up to
// Expiry after the last online validation. Anything unreadable is treated
// as "no cache".
package credcache

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/models"
	"github.com/dmitrijs2005/gophsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsync/internal/common"
	"github.com/dmitrijs2005/gophsync/internal/cryptox"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

// Expiry is the offline window after the last online validation.
const Expiry = 30 * 24 * time.Hour

const (
	credentialKey = "auth_cache"
	sessionKey    = "offline_session"
)

// Cache is the single-slot credential store. It holds no state of its own;
// every call reads or writes the metadata repository.
type Cache struct {
	repo   metadata.Repository
	clock  timex.Clock
	logger logging.Logger
}

// New returns a Cache persisting into repo.
//
// Parameters:
//   - repo: key/value storage shared with the rest of the local database.
//   - clock: time source for validation stamps and Expiry checks.
//   - logger: receives warnings about unreadable slots.
func New(repo metadata.Repository, clock timex.Clock, logger logging.Logger) *Cache {
	return &Cache{repo: repo, clock: clock, logger: logger.With("module", "credcache")}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *Cache) expired(at time.Time) bool {
	return c.clock.Now().Sub(at) > Expiry
}

// Cache replaces the slot with a fresh digest of password.
func (c *Cache) Cache(ctx context.Context, email, password, userID string) error {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	cred := models.CachedCredential{
		Email:         normalize(email),
		PasswordHash:  cryptox.HashPassword(pw, salt),
		Salt:          salt,
		LastValidated: c.clock.Now(),
		UserID:        userID,
	}
	return metadata.StoreJSON(ctx, c.repo, credentialKey, cred)
}

// load returns nil when there is no usable entry.
func (c *Cache) load(ctx context.Context) *models.CachedCredential {
	var cred models.CachedCredential
	found, err := metadata.LoadJSON(ctx, c.repo, credentialKey, &cred)
	if err != nil {
		c.logger.Warn(ctx, "credential cache unreadable", "error", err)
		return nil
	}
	if !found || cred.Email == "" || cred.PasswordHash == "" || len(cred.Salt) == 0 {
		return nil
	}
	return &cred
}

// Verify checks email and password against the cached digest.
func (c *Cache) Verify(ctx context.Context, email, password string) models.Verification {
	cred := c.load(ctx)
	if cred == nil || cred.Email != normalize(email) {
		return models.Verification{}
	}
	if c.expired(cred.LastValidated) {
		return models.Verification{Expired: true}
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if !cryptox.EqualDigest(cryptox.HashPassword(pw, cred.Salt), cred.PasswordHash) {
		return models.Verification{}
	}
	return models.Verification{Valid: true, UserID: cred.UserID}
}

// RefreshValidation slides the offline window forward. A missing entry is
// left alone.
func (c *Cache) RefreshValidation(ctx context.Context) error {
	cred := c.load(ctx)
	if cred == nil {
		return nil
	}
	cred.LastValidated = c.clock.Now()
	return metadata.StoreJSON(ctx, c.repo, credentialKey, cred)
}

// Has reports whether a cache entry exists for email, expired or not.
func (c *Cache) Has(ctx context.Context, email string) bool {
	cred := c.load(ctx)
	return cred != nil && cred.Email == normalize(email)
}

// Clear erases the credential and the offline session.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.repo.Delete(ctx, credentialKey); err != nil {
		return err
	}
	return c.ClearSession(ctx)
}

func (c *Cache) SaveSession(ctx context.Context, email, userID string) error {
	return metadata.StoreJSON(ctx, c.repo, sessionKey, models.OfflineSession{
		Email:     normalize(email),
		UserID:    userID,
		Timestamp: c.clock.Now(),
	})
}

// LoadSession returns the persisted offline session, or nil when there is
// none. Expired or corrupt sessions are removed.
func (c *Cache) LoadSession(ctx context.Context) (*models.OfflineSession, error) {
	var s models.OfflineSession
	found, err := metadata.LoadJSON(ctx, c.repo, sessionKey, &s)
	if err != nil {
		c.logger.Warn(ctx, "offline session unreadable, dropping it", "error", err)
		return nil, c.ClearSession(ctx)
	}
	if !found {
		return nil, nil
	}
	if s.Email == "" || c.expired(s.Timestamp) {
		return nil, c.ClearSession(ctx)
	}
	return &s, nil
}

func (c *Cache) ClearSession(ctx context.Context) error {
	return c.repo.Delete(ctx, sessionKey)
}

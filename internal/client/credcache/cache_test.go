package credcache

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophsync/internal/client/storage"
	"github.com/dmitrijs2005/gophsync/internal/logging"
	"github.com/dmitrijs2005/gophsync/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Cache, *timex.FakeClock, *metadata.SQLiteRepository) {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := metadata.NewSQLiteRepository(db)
	clock := timex.NewFakeClock(epoch)
	return New(repo, clock, logging.NewNopLogger()), clock, repo
}

func TestVerify_NoEntry(t *testing.T) {
	c, _, _ := setup(t)

	v := c.Verify(context.Background(), "a@b.c", "pw")
	assert.False(t, v.Valid)
	assert.False(t, v.Expired)
}

func TestVerify_ValidAndWrongPassword(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Cache(ctx, "User@Example.com", "secret", "u-1"))

	v := c.Verify(ctx, "user@example.COM", "secret")
	assert.True(t, v.Valid)
	assert.Equal(t, "u-1", v.UserID)

	v = c.Verify(ctx, "user@example.com", "wrong")
	assert.False(t, v.Valid)
	assert.False(t, v.Expired)

	v = c.Verify(ctx, "other@example.com", "secret")
	assert.False(t, v.Valid)
	assert.False(t, v.Expired)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		valid   bool
		expired bool
	}{
		{"29 days 23 hours", 29*24*time.Hour + 23*time.Hour, true, false},
		{"exactly 30 days", Expiry, true, false},
		{"30 days and 1 second", Expiry + time.Second, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock, _ := setup(t)
			ctx := context.Background()
			require.NoError(t, c.Cache(ctx, "a@b.c", "pw", "u"))

			clock.Advance(tt.age)
			v := c.Verify(ctx, "a@b.c", "pw")
			assert.Equal(t, tt.valid, v.Valid)
			assert.Equal(t, tt.expired, v.Expired)
		})
	}
}

func TestVerify_WrongPasswordBeforeExpiry(t *testing.T) {
	c, clock, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Cache(ctx, "a@b.c", "pw", "u"))

	clock.Advance(29*24*time.Hour + 23*time.Hour)
	v := c.Verify(ctx, "a@b.c", "nope")
	assert.False(t, v.Valid)
	assert.False(t, v.Expired)
}

func TestRefreshValidation_SlidesWindow(t *testing.T) {
	c, clock, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Cache(ctx, "a@b.c", "pw", "u"))

	clock.Advance(20 * 24 * time.Hour)
	require.NoError(t, c.RefreshValidation(ctx))
	clock.Advance(20 * 24 * time.Hour)

	assert.True(t, c.Verify(ctx, "a@b.c", "pw").Valid)
}

func TestCache_StoresDigestNotPlaintext(t *testing.T) {
	c, _, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Cache(ctx, "a@b.c", "hunter2-plaintext", "u"))

	raw, err := repo.Get(ctx, credentialKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2-plaintext")
}

func TestCache_SingleSlot(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Cache(ctx, "first@x.y", "pw1", "u1"))
	require.NoError(t, c.Cache(ctx, "second@x.y", "pw2", "u2"))

	assert.False(t, c.Has(ctx, "first@x.y"))
	assert.True(t, c.Has(ctx, "second@x.y"))
	assert.False(t, c.Verify(ctx, "first@x.y", "pw1").Valid)
}

func TestVerify_CorruptStorageFailsClosed(t *testing.T) {
	c, _, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, credentialKey, []byte("{garbage")))

	v := c.Verify(ctx, "a@b.c", "pw")
	assert.False(t, v.Valid)
	assert.False(t, c.Has(ctx, "a@b.c"))

	require.NoError(t, repo.Set(ctx, credentialKey, []byte(`{"email":"a@b.c","password_hash":""}`)))
	assert.False(t, c.Verify(ctx, "a@b.c", "").Valid)
}

func TestClear_RemovesCredentialAndSession(t *testing.T) {
	c, _, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Cache(ctx, "a@b.c", "pw", "u"))
	require.NoError(t, c.SaveSession(ctx, "a@b.c", "u"))

	require.NoError(t, c.Clear(ctx))

	assert.False(t, c.Has(ctx, "a@b.c"))
	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSession_LoadAndExpire(t *testing.T) {
	c, clock, _ := setup(t)
	ctx := context.Background()

	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, c.SaveSession(ctx, "A@b.c", "u"))
	s, err = c.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "a@b.c", s.Email)
	assert.Equal(t, "u", s.UserID)

	clock.Advance(Expiry + time.Second)
	s, err = c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	// expired session was dropped, rewinding does not bring it back
	clock.Set(epoch)
	s, err = c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSession_CorruptIsDropped(t *testing.T) {
	c, _, repo := setup(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, sessionKey, []byte("nope")))

	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	raw, err := repo.Get(ctx, sessionKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

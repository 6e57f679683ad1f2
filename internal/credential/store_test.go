package credential

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "credential.json"), zap.NewNop())
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	expiry := time.Now().Add(time.Hour).Truncate(time.Millisecond)

	require.NoError(t, store.Save("opaque-token", expiry.UnixMilli()))

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", cred.Token)
	assert.True(t, cred.Expired.Equal(expiry))

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "opaque-token", token)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()

	assert.ErrorIs(t, err, ErrNoCredential)
	_, ok := store.Token()
	assert.False(t, ok)
}

func TestStore_LoadExpiredClearsFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("stale", time.Now().Add(-time.Minute).UnixMilli()))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrExpired)

	// The stale file is gone, so the next load reports no credential.
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestStore_SaveDerivesExpiryFromTokenClaim(t *testing.T) {
	store := newTestStore(t)
	expiry := time.Now().Add(2 * time.Hour)

	require.NoError(t, store.Save(signedToken(t, expiry), 0))

	cred, err := store.Load()
	require.NoError(t, err)
	assert.WithinDuration(t, expiry, cred.Expired, time.Second)
}

func TestStore_SaveOpaqueTokenWithoutExpiry(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("not-a-jwt", 0))

	cred, err := store.Load()
	require.NoError(t, err)
	assert.True(t, cred.Expired.IsZero())
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("token", time.Now().Add(time.Hour).UnixMilli()))

	require.NoError(t, store.Clear())

	_, ok := store.Token()
	assert.False(t, ok)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestStore_ClearWithoutFile(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Clear())
}

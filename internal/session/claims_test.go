package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault-go/internal/credfile"
)

// signTestToken builds a token with the claim shape the service issues.
// The signing key is arbitrary: claims are decoded without verification.
func signTestToken(t *testing.T, username, role string, issued, expires time.Time) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return signed
}

func TestDecodeClaims(t *testing.T) {
	issued := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(24 * time.Hour)

	claims, err := decodeClaims(signTestToken(t, "alice", "admin", issued, expires))
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, issued.Equal(claims.IssuedAt))
	assert.True(t, expires.Equal(claims.ExpiresAt))
}

func TestDecodeClaims_Malformed(t *testing.T) {
	_, err := decodeClaims("not-a-jwt")
	require.Error(t, err)
}

func TestClaimsExpired(t *testing.T) {
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

	assert.False(t, Claims{}.Expired(now))
	assert.True(t, Claims{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
	assert.False(t, Claims{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}

func TestTokenClaims_NotLoggedIn(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "credential.json"), nil)
	require.NoError(t, err)

	_, err = store.TokenClaims()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestTokenClaims_FromResumedCredential(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)
	token := signTestToken(t, "alice", "user", issued, issued.Add(time.Hour))

	path := filepath.Join(t.TempDir(), "credential.json")
	require.NoError(t, credfile.Save(path, token, nil))

	store, err := NewStore(path, nil)
	require.NoError(t, err)

	claims, err := store.TokenClaims()
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Expired(time.Now()))
}

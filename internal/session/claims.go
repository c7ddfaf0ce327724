package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the display-relevant fields decoded from the bearer token.
// The token is decoded WITHOUT signature verification: only the server holds
// the signing secret, and only the server's verdict matters. These values
// feed `status` output and must never gate an access decision.
type Claims struct {
	UserID    string
	Username  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's stated expiry is in the past.
// Advisory only; the server may reject a token for other reasons too.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// TokenClaims decodes the held credential's claims for display.
// Returns ErrNotLoggedIn when no credential is held.
func (s *Store) TokenClaims() (*Claims, error) {
	tok := s.Credential()
	if tok == "" {
		return nil, ErrNotLoggedIn
	}

	return decodeClaims(tok)
}

// tokenClaims is the JWT payload shape the service issues.
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func decodeClaims(token string) (*Claims, error) {
	var tc tokenClaims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("session: decoding token claims: %w", err)
	}

	c := &Claims{
		UserID:   tc.Subject,
		Username: tc.Username,
		Role:     tc.Role,
	}

	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}

	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}

	return c, nil
}

// Package session carries the authenticated user through each operation.
// There is no ambient current user: entry points take a *Session and treat
// nil as "not logged in".
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNotAuthenticated is returned when an operation needs a user and none is
// present.
var ErrNotAuthenticated = errors.New("User not logged in")

// Session identifies the user on whose behalf an operation runs.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// New returns a session for userID with no expiry.
func New(userID string) *Session {
	return &Session{UserID: userID}
}

// Require returns the session's user id, or ErrNotAuthenticated when s is
// nil, empty, or expired.
func Require(s *Session) (string, error) {
	if s == nil || s.UserID == "" {
		return "", ErrNotAuthenticated
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return "", ErrNotAuthenticated
	}
	return s.UserID, nil
}

// Claims are the JWT claims of a dermwatch session token. The subject is
// the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer returns an Issuer using secret. A ttl of zero issues tokens
// without an expiry.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for userID, which must be a UUID.
func (i *Issuer) Issue(userID string) (string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses tokenString and returns the session it carries. Any
// failure wraps ErrNotAuthenticated.
func (i *Issuer) Verify(tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrNotAuthenticated
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrNotAuthenticated)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id in token: %w", ErrNotAuthenticated, err)
	}

	s := &Session{UserID: userID.String()}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

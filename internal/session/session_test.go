package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	_, err := Require(nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = Require(&Session{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = Require(&Session{UserID: "u1", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	id, err := Require(New("u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	userID := uuid.NewString()
	token, err := iss.Issue(userID)
	require.NoError(t, err)

	s, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)
}

func TestIssuer_NoExpiry(t *testing.T) {
	iss, err := NewIssuer("secret", 0)
	require.NoError(t, err)

	token, err := iss.Issue(uuid.NewString())
	require.NoError(t, err)
	s, err := iss.Verify(token)
	require.NoError(t, err)
	assert.True(t, s.ExpiresAt.IsZero())
}

func TestIssuer_Rejects(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue(uuid.NewString())
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	expiredToken, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"}})
	badSubjectToken, err := badSubject.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":            "",
		"garbage":          "not.a.token",
		"wrong secret":     foreign,
		"expired":          expiredToken,
		"non-uuid subject": badSubjectToken,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(token)
			assert.ErrorIs(t, err, ErrNotAuthenticated)
		})
	}
}

func TestIssuer_Validation(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)

	iss, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	_, err = iss.Issue("bob")
	assert.Error(t, err)
}

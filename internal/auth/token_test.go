package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(secret string, now time.Time) *TokenService {
	s := NewTokenService(secret, TokenTTL)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAndVerify(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService("test-secret", issuedAt)

	token, err := s.Issue("user-1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "expected a compact JWT")

	userID, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyExpiry(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService("test-secret", issuedAt)

	token, err := s.Issue("user-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"just issued", issuedAt, false},
		{"one second before expiry", issuedAt.Add(TokenTTL - time.Second), false},
		{"at expiry", issuedAt.Add(TokenTTL), true},
		{"after expiry", issuedAt.Add(TokenTTL + time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = func() time.Time { return tt.at }
			userID, err := s.Verify(token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Empty(t, userID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", userID)
		})
	}
}

func TestIssueUsesWholeSeconds(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 750_000_000, time.UTC)
	s := newTestService("test-secret", issuedAt)

	token, err := s.Issue("user-1")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	start := issuedAt.Truncate(time.Second)
	assert.True(t, start.Equal(claims.IssuedAt.Time), "iat %v", claims.IssuedAt.Time)
	assert.Equal(t, TokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	s.now = func() time.Time { return start.Add(TokenTTL - time.Nanosecond) }
	_, err = s.Verify(token)
	assert.NoError(t, err)

	s.now = func() time.Time { return start.Add(TokenTTL) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	now := time.Now()
	token, err := newTestService("other-secret", now).Issue("user-1")
	require.NoError(t, err)

	_, err = newTestService("test-secret", now).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	s := newTestService("test-secret", time.Now())

	for _, token := range []string{"", "garbage", "a.b.c", "Bearer x.y.z"} {
		_, err := s.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	now := time.Now()
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService("test-secret", now).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingClaims(t *testing.T) {
	now := time.Now()
	secret := []byte("test-secret")

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString(secret)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)

	s := newTestService("test-secret", now)
	_, err = s.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken, "token without exp")
	_, err = s.Verify(noUser)
	assert.ErrorIs(t, err, ErrInvalidToken, "token without userId")
}

func TestIssueRequiresUserID(t *testing.T) {
	_, err := newTestService("test-secret", time.Now()).Issue("")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckPassword("hunter2", hash))
	assert.False(t, CheckPassword("hunter3", hash))
	assert.False(t, CheckPassword("hunter2", "not-a-hash"))
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok, "empty id must not count as authenticated")

	id, ok := UserIDFromContext(WithUserID(context.Background(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(clock *fakeClock) *TokenManager {
	return NewTokenManager("test-secret", "test-issuer", DefaultTTL, WithClock(clock.Now))
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	tm := newTestManager(clock)

	tok, err := tm.Issue(42)
	require.NoError(t, err)

	id, err := tm.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	tm := newTestManager(clock)

	tok, err := tm.Issue(7)
	require.NoError(t, err)

	clock.t = issued.Add(14*time.Minute + 59*time.Second)
	id, err := tm.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	clock.t = issued.Add(15 * time.Minute)
	_, err = tm.Verify(tok)
	require.ErrorIs(t, err, ErrUnauthorized)

	clock.t = issued.Add(15*time.Minute + time.Second)
	_, err = tm.Verify(tok)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tok, err := NewTokenManager("right-secret", "test-issuer", 0, WithClock(clock.Now)).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret", "test-issuer", 0, WithClock(clock.Now)).Verify(tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_WrongIssuer(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tok, err := NewTokenManager("secret", "someone-else", 0, WithClock(clock.Now)).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "test-issuer", 0, WithClock(clock.Now)).Verify(tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_Malformed(t *testing.T) {
	tm := newTestManager(&fakeClock{t: time.Now()})
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := tm.Verify(tok)
		require.ErrorIs(t, err, ErrUnauthorized, tok)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	tm := newTestManager(&fakeClock{t: now})
	claims := jwt.RegisteredClaims{
		Issuer:    "test-issuer",
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Verify(none)
	require.ErrorIs(t, err, ErrUnauthorized)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tm.Verify(hs512)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerify_RejectsBadSubject(t *testing.T) {
	now := time.Now()
	tm := newTestManager(&fakeClock{t: now})
	for _, sub := range []string{"", "abc", "0", "-3"} {
		claims := jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = tm.Verify(tok)
		require.ErrorIs(t, err, ErrUnauthorized, sub)
	}
}

func TestVerify_RequiresExpiry(t *testing.T) {
	tm := newTestManager(&fakeClock{t: time.Now()})
	claims := jwt.RegisteredClaims{Issuer: "test-issuer", Subject: "1"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tm.Verify(tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewTokenManager("s", "i", 0).ttl)
	assert.Equal(t, time.Hour, NewTokenManager("s", "i", time.Hour).ttl)
}

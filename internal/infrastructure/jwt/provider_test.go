package jwtinfra

import (
	"testing"
	"time"

	"github.com/go-notes-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, ttl time.Duration) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{JWTSecret: "test-secret", JWTTTL: ttl})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{JWTTTL: time.Hour})
	require.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	signed, err := p.Sign("u1")
	require.NoError(t, err)

	claims, err := p.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_ExpiredToken(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	signed, err := p.Sign("u1")
	require.NoError(t, err)

	_, err = p.Verify(signed)
	require.Error(t, err)
}

func TestVerify_TamperedToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	signed, err := p.Sign("u1")
	require.NoError(t, err)

	// Flip one character anywhere in the token.
	tampered := []byte(signed)
	i := len(tampered) / 2
	if tampered[i] == 'a' {
		tampered[i] = 'b'
	} else {
		tampered[i] = 'a'
	}

	_, err = p.Verify(string(tampered))
	require.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	other, err := NewProvider(&config.Config{JWTSecret: "another-secret", JWTTTL: time.Hour})
	require.NoError(t, err)

	signed, err := other.Sign("u1")
	require.NoError(t, err)

	_, err = p.Verify(signed)
	require.Error(t, err)
}

func TestSign_IndependentTokens(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	t1, err := p.Sign("u1")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond) // iat has second granularity
	t2, err := p.Sign("u1")
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
	c1, err := p.Verify(t1)
	require.NoError(t, err)
	c2, err := p.Verify(t2)
	require.NoError(t, err)
	assert.Equal(t, c1.UserID, c2.UserID)
}

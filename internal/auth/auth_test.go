package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderRegisterLogin(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	acc, err := p.Register(ctx, "Ann_1", "hunter2", "")
	require.NoError(t, err)
	assert.Equal(t, "Ann_1", acc.DisplayName)
	assert.NotEmpty(t, acc.Color)

	_, err = p.Register(ctx, "ann_1", "other", "x")
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := p.Login(ctx, "ANN_1", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Ann_1", got.Username)

	_, err = p.Login(ctx, "ann_1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.Login(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	_, err := p.Register(ctx, "ab", "hunter2", "")
	assert.ErrorIs(t, err, ErrInvalidUsername)
	_, err = p.Register(ctx, "has space", "hunter2", "")
	assert.ErrorIs(t, err, ErrInvalidUsername)
	_, err = p.Register(ctx, "valid", "123", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, NormalizeName("Admin"), NormalizeName(" ADMIN "))
	assert.NotEqual(t, NormalizeName("admin"), NormalizeName("admin2"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour, "hvz")
	require.NoError(t, err)
	tok, err := issuer.Issue(&Account{Username: "ann", DisplayName: "Ann"})
	require.NoError(t, err)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ann", claims.Username)
	assert.Equal(t, "Ann", claims.DisplayName)
	assert.NotEmpty(t, claims.ID)

	other, err := NewTokenIssuer("different", time.Hour, "hvz")
	require.NoError(t, err)
	_, err = other.Verify(tok)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Minute, "hvz")
	require.NoError(t, err)
	base := time.Now()
	issuer.now = func() time.Time { return base }
	tok, err := issuer.Issue(&Account{Username: "ann"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Verify(tok)
	assert.Error(t, err)
}

func TestAuthenticateResults(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	issuer, err := NewTokenIssuer("", 0, "hvz")
	require.NoError(t, err)

	res := Authenticate(ctx, p, issuer, true, "zed", "brains", "Zed")
	assert.True(t, res.Success)
	assert.Equal(t, "Zed", res.Name)
	assert.NotEmpty(t, res.Token)

	res = Authenticate(ctx, p, issuer, true, "zed", "brains", "")
	assert.False(t, res.Success)
	assert.Equal(t, "username already taken", res.Message)

	res = Authenticate(ctx, p, issuer, false, "zed", "nope", "")
	assert.False(t, res.Success)
	assert.Empty(t, res.Token)
}

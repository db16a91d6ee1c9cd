package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	secret, err := GenerateSecret()
	require.NoError(t, err)
	ti, err := NewTokenIssuer(secret, "worldsim", time.Hour)
	require.NoError(t, err)
	return ti
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := newTestIssuer(t)
	op := &Operator{ID: 42, Username: "gm", IsAdmin: true}

	token, err := ti.Issue(op)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "JWT состоит из трёх частей")

	claims, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.OperatorID)
	assert.Equal(t, "gm", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	ti := newTestIssuer(t)
	for _, token := range []string{
		"",
		"not.a.jwt",
		"invalid.token.here",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	} {
		_, err := ti.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "токен %q", token)
	}
}

func TestTokenIssuer_RejectsForeignKey(t *testing.T) {
	a := newTestIssuer(t)
	b := newTestIssuer(t)

	token, err := a.Issue(&Operator{ID: 1, Username: "gm"})
	require.NoError(t, err)
	_, err = b.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Expiry(t *testing.T) {
	ti := newTestIssuer(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ti.now = func() time.Time { return now }

	token, err := ti.Issue(&Operator{ID: 1, Username: "gm"})
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = ti.Validate(token)
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuer_Secrets(t *testing.T) {
	_, err := NewTokenIssuer(base64.StdEncoding.EncodeToString([]byte("too-short")), "", 0)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenIssuer("%%% не base64 %%%", "", 0)
	assert.Error(t, err)

	ti, err := NewTokenIssuer("", "", 0)
	require.NoError(t, err)
	assert.Len(t, ti.secret, 32)
	assert.Equal(t, defaultTokenTTL, ti.ttl)
}

func TestMemoryOperatorRepo(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	repo, err := NewMemoryOperatorRepo([]OperatorSeed{{Username: "Keeper", PasswordHash: hash, Admin: true}})
	require.NoError(t, err)

	op, err := repo.GetOperator("keeper")
	require.NoError(t, err)
	assert.Equal(t, "Keeper", op.Username)
	assert.True(t, op.IsAdmin)

	_, err = repo.CreateOperator("KEEPER", hash, false)
	assert.ErrorIs(t, err, ErrOperatorExists)

	_, err = repo.ValidateCredentials("keeper", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = repo.ValidateCredentials("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	op, err = repo.ValidateCredentials(" Keeper ", "s3cret")
	require.NoError(t, err)
	assert.False(t, op.LastLogin.IsZero())

	_, err = repo.GetOperator("ghost")
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestCheckPassword_EmptyHash(t *testing.T) {
	assert.False(t, CheckPassword("", ""))
}

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedIssuer(t *testing.T, secret string, at time.Time) *Issuer {
	t.Helper()
	i, err := NewIssuer(secret, 30*time.Minute)
	require.NoError(t, err)
	i.now = func() time.Time { return at }
	return i
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)
	i := fixedIssuer(t, "s3cret", now)

	tok, err := i.Issue("alice")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, now.Add(30*time.Minute), tok.ExpiresAt)

	sub, err := i.Parse(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC)
	tok, err := fixedIssuer(t, "s3cret", now).Issue("alice")
	require.NoError(t, err)

	later := fixedIssuer(t, "s3cret", now.Add(31*time.Minute))
	_, err = later.Parse(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	now := time.Now()
	tok, err := fixedIssuer(t, "one", now).Issue("alice")
	require.NoError(t, err)

	_, err = fixedIssuer(t, "two", now).Parse(tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = fixedIssuer(t, "s3cret", time.Now()).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = fixedIssuer(t, "s3cret", time.Now()).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Minute)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hashed)
	assert.True(t, CheckPassword(hashed, "correct horse"))
	assert.False(t, CheckPassword(hashed, "battery staple"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))

	_, err = HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

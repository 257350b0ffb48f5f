package auth

import (
	"testing"
	"time"

	"invitide/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)

	signed, claims, err := tokens.Issue(models.Identity{ID: "u1", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.Subject)
	assert.Equal(t, "alice@example.com", parsed.Email)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestParseRejectsExpired(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, _, err := tokens.Issue(models.Identity{ID: "u1"})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(signed)
	assert.Error(t, err)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)

	other, _, err := NewTokenManager("other-secret", time.Hour).Issue(models.Identity{ID: "u1"})
	require.NoError(t, err)
	_, err = tokens.Parse(other)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1", "jti": "x", "iss": tokenIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(unsigned)
	assert.Error(t, err)

	_, err = tokens.Parse("")
	assert.Error(t, err)
}

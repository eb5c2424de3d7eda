package auth_test

import (
	"testing"
	"time"

	"retail-erp/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "clerk@example.com",
		"role":  "authenticated",
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParser_Verified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	p := auth.NewParser("s3cret")

	c, err := p.Parse(sign(t, "s3cret", exp))
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
	assert.Equal(t, "clerk@example.com", c.Email)
	assert.Equal(t, "authenticated", c.Role)
	assert.True(t, exp.Equal(c.ExpiresAt))

	js, err := c.JSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"sub":"user-1"`)
}

func TestParser_RejectsWrongSecretAndExpired(t *testing.T) {
	p := auth.NewParser("s3cret")

	_, err := p.Parse(sign(t, "other", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = p.Parse(sign(t, "s3cret", time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = p.Parse("")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParser_UnverifiedDecodesAnySignature(t *testing.T) {
	p := auth.NewParser("")
	assert.False(t, p.Verifies())

	c, err := p.Parse(sign(t, "whatever", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)

	_, err = p.Parse("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

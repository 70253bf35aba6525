package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/smallbiznis/touchbase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-test-key"

func newTestVerifier() *Verifier {
	return NewVerifier(config.Config{Auth: config.AuthConfig{
		JWTSecret: testSecret,
		Issuer:    "https://idp.example.com/auth/v1",
		Audience:  "authenticated",
	}})
}

func sign(t *testing.T, claims Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		Email:        "coach@example.com",
		UserMetadata: map[string]any{"full_name": "Coach Dewi"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "0b6f4d4e-3f7a-4c1e-9f43-1c2d3e4f5a6b",
			Issuer:    "https://idp.example.com/auth/v1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	token := sign(t, validClaims(), jwt.SigningMethodHS256, []byte(testSecret))

	identity, err := newTestVerifier().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "0b6f4d4e-3f7a-4c1e-9f43-1c2d3e4f5a6b", identity.Subject)
	assert.Equal(t, "coach@example.com", identity.Email)
	assert.Equal(t, "Coach Dewi", identity.Name)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token := sign(t, claims, jwt.SigningMethodHS256, []byte(testSecret))

	_, err := newTestVerifier().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token := sign(t, validClaims(), jwt.SigningMethodHS256, []byte("other"))

	_, err := newTestVerifier().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"service_role"}
	token := sign(t, claims, jwt.SigningMethodHS256, []byte(testSecret))

	_, err := newTestVerifier().Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWithoutSecret(t *testing.T) {
	_, err := NewVerifier(config.Config{}).Verify("abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

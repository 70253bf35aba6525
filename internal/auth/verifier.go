// Package auth verifies bearer tokens issued by the hosted identity provider.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/smallbiznis/touchbase/internal/config"
)

var (
	ErrMissingToken  = errors.New("missing_token")
	ErrInvalidToken  = errors.New("invalid_token")
	ErrNotConfigured = errors.New("auth_not_configured")
)

// Identity is the verified subject of a request.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type Claims struct {
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.Auth.JWTSecret),
		issuer:   cfg.Auth.Issuer,
		audience: cfg.Auth.Audience,
	}
}

// Verify checks signature, expiry, issuer and audience and returns the token subject.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	if v == nil || len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, ErrInvalidToken
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    displayName(claims),
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

func displayName(c *Claims) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	for _, key := range []string{"full_name", "name"} {
		if value, ok := c.UserMetadata[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

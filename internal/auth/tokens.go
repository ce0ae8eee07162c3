package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInspector reads the claims of provider access tokens.
// With a secret, HS256 signatures are verified; without one the claims are
// read unverified and only used to schedule refreshes.
type TokenInspector struct {
	secret []byte
}

func NewTokenInspector(secret string) *TokenInspector {
	ti := &TokenInspector{}
	if secret != "" {
		ti.secret = []byte(secret)
	}
	return ti
}

// Verifies reports whether signatures are checked.
func (ti *TokenInspector) Verifies() bool { return len(ti.secret) > 0 }

// Claims parses the token. Expired tokens are not an error here: the
// caller decides when to refresh.
func (ti *TokenInspector) Claims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}

	if !ti.Verifies() {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("failed to parse access token: %w", err)
		}
		return claims, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify access token: %w", err)
	}
	return claims, nil
}

// Expiry returns the exp claim of token.
func (ti *TokenInspector) Expiry(token string) (time.Time, error) {
	claims, err := ti.Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

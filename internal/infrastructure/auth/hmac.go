package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACValidator validates HS256 tokens signed with a shared secret.
type HMACValidator struct {
	claimsChecker
	secret    []byte
	clockSkew time.Duration
}

func NewHMACValidator(secret []byte, issuer, audience string, clockSkew time.Duration) *HMACValidator {
	return &HMACValidator{
		claimsChecker: claimsChecker{issuer: issuer, audience: audience},
		secret:        secret,
		clockSkew:     clockSkew,
	}
}

func (v *HMACValidator) Validate(_ context.Context, rawToken string) (*PrincipalClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(rawToken, jwt.MapClaims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return v.principal(mapClaims)
}

func (v *HMACValidator) Ready() bool {
	return len(v.secret) > 0
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/config"
)

// PrincipalClaims represent the subset of JWT claims we care about.
type PrincipalClaims struct {
	Subject           string
	Issuer            string
	Audience          []string
	PreferredUsername string
	Email             string
	Roles             []string
	ExpiresAt         time.Time
	TokenID           string
}

// TokenValidator turns a bearer token into principal claims.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*PrincipalClaims, error)
	Ready() bool
}

// NewValidator builds the validator selected by AUTH_MODE.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (TokenValidator, error) {
	logger := log.With().Str("component", "auth").Logger()
	switch cfg.AuthMode {
	case "hmac":
		logger.Warn().Msg("using shared-secret HS256 token validation")
		return NewHMACValidator([]byte(cfg.AuthHMACSecret), cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthClockSkew), nil
	default:
		return NewJWKSValidator(ctx, cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience, cfg.AuthJWKSRefresh, cfg.AuthClockSkew, logger)
	}
}

// claimsChecker applies the issuer, audience and subject checks shared by
// every validator.
type claimsChecker struct {
	issuer   string
	audience string
}

func (c claimsChecker) principal(mapClaims jwt.MapClaims) (*PrincipalClaims, error) {
	iss := claimString(mapClaims["iss"])
	if c.issuer != "" && iss != c.issuer {
		return nil, fmt.Errorf("issuer mismatch %s", iss)
	}

	var audiences []string
	if audRaw, ok := mapClaims["aud"]; ok {
		switch val := audRaw.(type) {
		case string:
			audiences = append(audiences, val)
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					audiences = append(audiences, s)
				}
			}
		default:
			return nil, fmt.Errorf("aud claim unsupported type %T", val)
		}
	}
	if c.audience != "" && !contains(audiences, c.audience) {
		return nil, errors.New("audience mismatch")
	}

	sub := claimString(mapClaims["sub"])
	if sub == "" {
		return nil, errors.New("sub claim missing")
	}

	return &PrincipalClaims{
		Subject:           sub,
		Issuer:            iss,
		Audience:          audiences,
		PreferredUsername: claimString(mapClaims["preferred_username"]),
		Email:             claimString(mapClaims["email"]),
		Roles:             roles(mapClaims),
		ExpiresAt:         jwtNumericTime(mapClaims["exp"]),
		TokenID:           claimString(mapClaims["jti"]),
	}, nil
}

// roles collects realm roles and a flat "roles" claim.
func roles(mapClaims jwt.MapClaims) []string {
	var out []string
	if realmAccess, ok := mapClaims["realm_access"].(map[string]any); ok {
		out = appendStrings(out, realmAccess["roles"])
	}
	out = appendStrings(out, mapClaims["roles"])
	return out
}

func appendStrings(out []string, raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" && !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func jwtNumericTime(value any) time.Time {
	switch timeValue := value.(type) {
	case float64:
		return time.Unix(int64(timeValue), 0).UTC()
	case int64:
		return time.Unix(timeValue, 0).UTC()
	case json.Number:
		if unixTime, err := timeValue.Int64(); err == nil {
			return time.Unix(unixTime, 0).UTC()
		}
	}
	return time.Time{}
}

func claimString(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":          "user-42",
		"iss":          "https://id.learnhub.test",
		"aud":          []any{"upload-broker", "account"},
		"email":        "student@learnhub.test",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"realm_access": map[string]any{"roles": []any{"student"}},
		"roles":        []any{"instructor", "student"},
	}
}

func TestHMACValidatorAcceptsValidToken(t *testing.T) {
	v := NewHMACValidator(testSecret, "https://id.learnhub.test", "upload-broker", 30*time.Second)

	claims, err := v.Validate(context.Background(), signHS256(t, testSecret, baseClaims()))

	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "student@learnhub.test", claims.Email)
	assert.Equal(t, []string{"student", "instructor"}, claims.Roles)
	assert.True(t, v.Ready())
}

func TestHMACValidatorRejects(t *testing.T) {
	v := NewHMACValidator(testSecret, "https://id.learnhub.test", "upload-broker", time.Second)

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noExpiry := baseClaims()
	delete(noExpiry, "exp")

	wrongIssuer := baseClaims()
	wrongIssuer["iss"] = "https://evil.test"

	wrongAudience := baseClaims()
	wrongAudience["aud"] = "billing"

	noSubject := baseClaims()
	delete(noSubject, "sub")

	tests := map[string]string{
		"expired":        signHS256(t, testSecret, expired),
		"no expiry":      signHS256(t, testSecret, noExpiry),
		"wrong secret":   signHS256(t, []byte("another-secret-another-secret-xx"), baseClaims()),
		"wrong issuer":   signHS256(t, testSecret, wrongIssuer),
		"wrong audience": signHS256(t, testSecret, wrongAudience),
		"no subject":     signHS256(t, testSecret, noSubject),
		"garbage":        "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), token)
			assert.Error(t, err)
		})
	}
}

func TestJWKSValidator(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := &JWKSValidator{
		claimsChecker: claimsChecker{issuer: "https://id.learnhub.test", audience: "upload-broker"},
		logger:        zerolog.Nop(),
		clockSkew:     30 * time.Second,
	}
	assert.False(t, v.Ready())
	v.lastErr.Store(lastErrWrap{})
	v.jwks.Store(keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		"kid-1": keyfunc.NewGivenRSA(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: "RS256"}),
	}))
	assert.True(t, v.Ready())

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims())
	token.Header["kid"] = "kid-1"
	raw, err := token.SignedString(key)
	require.NoError(t, err)

	claims, err := v.Validate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Contains(t, claims.Audience, "upload-broker")

	_, err = v.Validate(context.Background(), signHS256(t, testSecret, baseClaims()))
	assert.Error(t, err, "HS256 tokens must not be accepted in jwks mode")
}

package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/upload-broker/internal/infrastructure/auth"
	"learnhub/upload-broker/internal/utils/platformerrors"
)

type fakeValidator struct {
	ValidateFunc func(ctx context.Context, raw string) (*auth.PrincipalClaims, error)
}

func (f *fakeValidator) Validate(ctx context.Context, raw string) (*auth.PrincipalClaims, error) {
	return f.ValidateFunc(ctx, raw)
}

func (f *fakeValidator) Ready() bool { return true }

func newEngine(validator auth.TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), AuthMiddleware(validator, zerolog.Nop()))
	engine.GET("/whoami", func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         caller.ID,
			"roles":      caller.Roles,
			"request_id": platformerrors.RequestIDFromContext(c.Request.Context()),
		})
	})
	return engine
}

func TestAuthMiddlewareSetsCaller(t *testing.T) {
	validator := &fakeValidator{ValidateFunc: func(_ context.Context, raw string) (*auth.PrincipalClaims, error) {
		require.Equal(t, "good-token", raw)
		return &auth.PrincipalClaims{Subject: "user-1", Roles: []string{"instructor"}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	newEngine(validator).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ID        string   `json:"id"`
		Roles     []string `json:"roles"`
		RequestID string   `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body.ID)
	assert.Equal(t, []string{"instructor"}, body.Roles)
	assert.Equal(t, "req-42", body.RequestID)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestAuthMiddlewareRejects(t *testing.T) {
	validator := &fakeValidator{ValidateFunc: func(context.Context, string) (*auth.PrincipalClaims, error) {
		return nil, errors.New("token is expired")
	}}

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer   "},
		{name: "invalid token", header: "Bearer expired"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			newEngine(validator).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body platformerrors.HTTPErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, "unauthorized_error", body.Error.Type)
			assert.NotEmpty(t, body.Error.RequestID)
		})
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c)) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get("X-Request-Id"))
}

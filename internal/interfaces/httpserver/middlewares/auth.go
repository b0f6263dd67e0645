package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/upload-broker/internal/domain/upload"
	"learnhub/upload-broker/internal/infrastructure/auth"
	"learnhub/upload-broker/internal/utils/platformerrors"
)

const callerContextKey = "caller"

// AuthMiddleware validates bearer tokens and stores the resulting caller on the gin context.
func AuthMiddleware(validator auth.TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth-middleware").Logger()
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.Debug().Str("path", c.FullPath()).Str("method", c.Request.Method).Msg("unauthenticated request")
			platformerrors.WriteUnauthorized(c, "authentication required")
			return
		}

		claims, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("token validation failed")
			platformerrors.WriteUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(callerContextKey, &upload.Caller{
			ID:    claims.Subject,
			Email: claims.Email,
			Roles: claims.Roles,
		})
		c.Next()
	}
}

// CallerFromContext returns the authenticated caller, if any.
func CallerFromContext(c *gin.Context) (*upload.Caller, bool) {
	val, ok := c.Get(callerContextKey)
	if !ok {
		return nil, false
	}
	caller, ok := val.(*upload.Caller)
	return caller, ok && caller != nil
}

// SetCaller stores caller on the gin context.
func SetCaller(c *gin.Context, caller *upload.Caller) {
	c.Set(callerContextKey, caller)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

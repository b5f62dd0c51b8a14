package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"auction-ledger/internal/accounts"
	"auction-ledger/services/auction/helpers"
	"auction-ledger/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to the caller's identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (accounts.Identity, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if id, ok := helpers.CurrentIdentity(c); ok {
		fields["user_id"] = id.UserID
	}
	utils.Info("HTTP Request", fields)
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := helpers.BearerToken(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, errors.New("missing bearer token"), "authentication required")
			c.Abort()
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "authentication required")
			utils.Warn("RequireAuth: token rejected", map[string]any{"path": c.Request.URL.Path, "error": err.Error()})
			c.Abort()
			return
		}

		c.Set(helpers.IdentityKey, id)
		c.Set(helpers.TokenKey, token)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and otherwise lets the request through anonymously.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := helpers.BearerToken(c); ok {
			if id, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(helpers.IdentityKey, id)
				c.Set(helpers.TokenKey, token)
			} else {
				utils.Debug("OptionalAuth: ignoring invalid token", map[string]any{"error": err.Error()})
			}
		}
		c.Next()
	}
}

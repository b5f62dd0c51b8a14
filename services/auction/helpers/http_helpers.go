package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"auction-ledger/internal/accounts"
	"auction-ledger/internal/auctionerrors"
	"auction-ledger/utils"

	"github.com/gin-gonic/gin"
)

// Keys stored on the gin context by the auth middleware
const (
	IdentityKey = "identity"
	TokenKey    = "token"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	var tooLow *auctionerrors.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusForbidden, "not authorized"
	case errors.Is(err, auctionerrors.ErrAlreadyClosed):
		return http.StatusConflict, "auction already closed"
	case errors.Is(err, auctionerrors.ErrEmptyComment):
		return http.StatusBadRequest, "empty comment not allowed"
	case errors.Is(err, auctionerrors.ErrTooLong):
		return http.StatusBadRequest, "max length exceeded"
	case errors.Is(err, auctionerrors.ErrValidation):
		return http.StatusBadRequest, "validation error"
	case errors.Is(err, auctionerrors.ErrDuplicate):
		return http.StatusConflict, "already exists"
	case errors.Is(err, auctionerrors.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "invalid username and/or password"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the mapped error response and logs it. Server errors log at error level, client errors at warn.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
	} else {
		utils.Warn(handlerName+": request rejected", fields)
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// CurrentIdentity returns the authenticated caller, if any
func CurrentIdentity(c *gin.Context) (accounts.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return accounts.Identity{}, false
	}
	id, ok := v.(accounts.Identity)
	return id, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

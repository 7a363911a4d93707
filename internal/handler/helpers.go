package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshboard/meshgate/internal/middleware"
	appErr "github.com/meshboard/meshgate/internal/pkg/errors"
	"github.com/meshboard/meshgate/internal/pkg/response"
)

func getAuth(c *gin.Context) *middleware.AuthContext {
	return middleware.GetAuth(c)
}

func getUserID(c *gin.Context) string {
	auth := getAuth(c)
	if auth.User == nil {
		return ""
	}
	return auth.User.UserID
}

func handleError(c *gin.Context, err error) {
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", getUserID(c)),
			zap.Error(err),
		)
	}
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrInvalidToken):
		// One opaque message for every token failure mode: callers learn
		// nothing about why decryption or lookup failed.
		response.Error(c, http.StatusBadRequest, "invalid_token", "invalid or expired link")
	case errors.Is(err, appErr.ErrTokenExpired):
		response.Error(c, http.StatusGone, "token_expired", "link expired")
	case errors.Is(err, appErr.ErrTokenRevoked):
		response.Error(c, http.StatusGone, "token_revoked", "link revoked")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, appErr.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusServiceUnavailable, "store_unavailable", "store unavailable, retry later")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

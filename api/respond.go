package api

import (
	"errors"
	"net/http"

	"mcph/crate-api/internal/crate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortCoreError translates a core error into the matching HTTP response.
// Expected denials map to 4xx without logging, anything else is a 5xx
// worth a log line.
func abortCoreError(c *gin.Context, err error) {
	requestID := c.MustGet("requestID").(string)

	switch {
	case errors.Is(err, crate.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Crate not found or expired",
			"requestID": requestID,
		})
	case errors.Is(err, crate.ErrPasswordRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "password_required",
			"requestID": requestID,
		})
	case errors.Is(err, crate.ErrInvalidPassword):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid password",
			"requestID": requestID,
		})
	case errors.Is(err, crate.ErrNotPermitted):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "You don't have access to this crate",
			"requestID": requestID,
		})
	case crate.IsValidation(err), errors.Is(err, crate.ErrBinaryInline):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Crate operation failed", zap.Error(err), zap.String("requestID", requestID))
	}
}

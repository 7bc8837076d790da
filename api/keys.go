package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type keyCreateOpts struct {
	Label string `json:"label"`
}

// KeyCreate mints a new API key for the caller. The plain key is part of
// this response and never shown again.
func (a *API) KeyCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.GetString("userID")

	var data keyCreateOpts
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&data); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Malformed or invalid JSON request body",
				"requestID": requestID,
			})
			return
		}
	}

	key, plain, err := a.Keys.Create(userID, data.Label)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create API key", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":       key,
		"plain_key": plain,
	})
}

// KeyFetch lists the caller's API keys, secrets excluded
func (a *API) KeyFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.GetString("userID")

	keys, err := a.Keys.List(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list API keys", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, keys)
}

// KeyDelete revokes one of the caller's API keys
func (a *API) KeyDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.GetString("userID")

	keyID := c.Param("id")
	if keyID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No key ID provided",
			"requestID": requestID,
		})
		return
	}

	err := a.Keys.Delete(userID, keyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Key not found. It either doesn't exist or you don't own it",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete API key", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusOK)
}

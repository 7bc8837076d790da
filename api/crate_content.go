package api

import (
	"net/http"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

type crateContentOpts struct {
	Password string `json:"password"`
}

// CrateContent returns the crate content inline: plain text for text-like
// categories, base64 for images. Binary crates get refused with a hint to
// use the download route instead.
func (a *API) CrateContent(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	var data crateContentOpts
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&data); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Malformed or invalid JSON request body",
				"requestID": requestID,
			})
			return
		}
	}

	content, err := a.Crates.GetContent(c.Request.Context(), middleware.CallerIdentity(c), crateID, data.Password)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        content.Crate.ID,
		"title":     content.Crate.Title,
		"category":  content.Crate.Category,
		"mime_type": content.MimeType,
		"data":      content.Data,
		"base64":    content.Base64,
	})
}

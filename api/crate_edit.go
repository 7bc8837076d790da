package api

import (
	"net/http"

	"mcph/crate-api/internal/crate"
	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

type crateEditOpts struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Tags        []string          `json:"tags"`
	Metadata    map[string]string `json:"metadata"`
}

// CrateEdit applies owner metadata edits. The search field is recomputed
// by the core, never patched directly.
func (a *API) CrateEdit(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	var data crateEditOpts
	if err := c.BindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	crt, err := a.Crates.Update(c.Request.Context(), middleware.CallerIdentity(c), crateID, crate.UpdateInput{
		Title:       data.Title,
		Description: data.Description,
		Category:    data.Category,
		Tags:        data.Tags,
		Metadata:    data.Metadata,
	})
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crt)
}

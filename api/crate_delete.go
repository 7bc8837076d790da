package api

import (
	"net/http"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// CrateDelete removes a crate owned by the caller, stored bytes included
func (a *API) CrateDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	err := a.Crates.Delete(c.Request.Context(), middleware.CallerIdentity(c), crateID)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

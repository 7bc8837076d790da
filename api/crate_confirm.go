package api

import (
	"net/http"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// CrateConfirm finalizes a pending signed-URL upload. The stored byte
// length is read back from the bucket and the crate flips to ready.
func (a *API) CrateConfirm(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	crt, err := a.Crates.ConfirmUpload(c.Request.Context(), middleware.CallerIdentity(c), crateID)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crt)
}

package api

import (
	"net/http"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// CrateGet returns crate metadata. Password-gated crates answer 401
// password_required until the right password shows up, so the frontend
// knows to render the password form.
func (a *API) CrateGet(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	crt, err := a.Crates.GetMetadata(c.Request.Context(), middleware.CallerIdentity(c), crateID, c.Query("password"))
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crt)
}

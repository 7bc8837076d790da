package api

import (
	"net/http"
	"strconv"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// CrateList returns the caller's crates in pages, newest first. The
// start_after query carries the last crate ID of the previous page.
func (a *API) CrateList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid limit provided",
			"requestID": requestID,
		})
		return
	}

	crates, err := a.Crates.List(c.Request.Context(), middleware.CallerIdentity(c), limit, c.Query("start_after"))
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crates)
}

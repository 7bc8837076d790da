package api

import (
	"net/http"
	"strconv"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// CrateSearch matches the caller's crates against the derived search
// field, plain substring search over title, description, tags and
// metadata.
func (a *API) CrateSearch(c *gin.Context) {
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

	results, err := a.Crates.Search(c.Request.Context(), middleware.CallerIdentity(c), c.Query("query"), limit)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

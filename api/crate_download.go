package api

import (
	"net/http"
	"strconv"
	"time"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// CrateDownload redirects the caller to a signed URL for the raw bytes.
// The optional expires query is the validity in seconds, clamped to at
// most a day.
func (a *API) CrateDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	var ttl time.Duration
	if v := c.Query("expires"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid expires value provided",
				"requestID": requestID,
			})
			return
		}

		ttl = time.Duration(secs) * time.Second
	}

	url, _, err := a.Crates.GetDownloadLink(c.Request.Context(), middleware.CallerIdentity(c), crateID, c.Query("password"), ttl)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.Redirect(http.StatusFound, url)
}

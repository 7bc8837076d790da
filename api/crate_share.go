package api

import (
	"net/http"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

type crateShareOpts struct {
	Public   bool   `json:"public"`
	Password string `json:"password"`
}

// CrateShare opens a crate up: plainly public with no password, password
// gated otherwise. Asking for both in one request is rejected.
func (a *API) CrateShare(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	var data crateShareOpts
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&data); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Malformed or invalid JSON request body",
				"requestID": requestID,
			})
			return
		}
	}

	crt, err := a.Crates.Share(c.Request.Context(), middleware.CallerIdentity(c), crateID, data.Public, data.Password)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crt)
}

// CrateUnshare makes a crate private again and drops any password.
func (a *API) CrateUnshare(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	crt, err := a.Crates.Unshare(c.Request.Context(), middleware.CallerIdentity(c), crateID)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crt)
}

package api

import (
	"net/http"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

type crateTransferOpts struct {
	CrateIDs []string `json:"crate_ids" binding:"required"`
}

// CrateTransfer claims crates uploaded before the caller logged in. Each
// ID succeeds or fails on its own, the batch itself never fails because
// one entry was bad.
func (a *API) CrateTransfer(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data crateTransferOpts
	if err := c.BindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	if len(data.CrateIDs) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate IDs provided",
			"requestID": requestID,
		})
		return
	}

	results, claimed, err := a.Crates.TransferOwnership(c.Request.Context(), middleware.CallerIdentity(c), data.CrateIDs)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"crates":  claimed,
	})
}

package api

import (
	"net/http"
	"time"

	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

// absoluteExpiry converts an absolute timestamp into a duration using
// whole-second arithmetic. Sub-second slop in the local clock would
// otherwise reject a timestamp sitting exactly on the minimum expiry
func absoluteExpiry(at, now time.Time) time.Duration {
	return time.Duration(at.Unix()-now.Unix()) * time.Second
}

type crateExpiryOpts struct {
	// Absolute form, RFC 3339
	ExpiresAt string `json:"expires_at"`

	// Relative form
	Amount int    `json:"amount"`
	Unit   string `json:"unit"` // minutes, hours or days
}

// CrateExpiry resets the expiry of an owned crate. Accepts an absolute
// RFC 3339 timestamp or an amount/unit pair, both validated against the
// 1 hour to 29 days range.
func (a *API) CrateExpiry(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	crateID := c.Param("id")
	if crateID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No crate ID provided",
			"requestID": requestID,
		})
		return
	}

	var data crateExpiryOpts
	if err := c.BindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	var d time.Duration

	if data.ExpiresAt != "" {
		at, err := time.Parse(time.RFC3339, data.ExpiresAt)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "expires_at is not a valid RFC 3339 timestamp",
				"requestID": requestID,
			})
			return
		}

		d = absoluteExpiry(at, time.Now())
	} else {
		switch data.Unit {
		case "minutes":
			d = time.Duration(data.Amount) * time.Minute
		case "hours":
			d = time.Duration(data.Amount) * time.Hour
		case "days":
			d = time.Duration(data.Amount) * 24 * time.Hour
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "unit must be one of minutes, hours or days",
				"requestID": requestID,
			})
			return
		}
	}

	crt, err := a.Crates.SetExpiry(c.Request.Context(), middleware.CallerIdentity(c), crateID, d)
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, crt)
}

package api

import (
	"encoding/base64"
	"net/http"
	"time"

	"mcph/crate-api/internal/crate"
	"mcph/crate-api/middleware"

	"github.com/gin-gonic/gin"
)

type crateUploadOpts struct {
	FileName    string            `json:"file_name"`
	ContentType string            `json:"content_type"`
	Data        string            `json:"data"`        // plain UTF-8 content
	DataBase64  string            `json:"data_base64"` // wins over data when set
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Tags        []string          `json:"tags"`
	Metadata    map[string]string `json:"metadata"`
	Public      bool              `json:"public"`
	Password    string            `json:"password"`
	ExpiresIn   string            `json:"expires_in"` // Go duration string, e.g. "72h"
}

// CrateUpload creates a new crate. Small payloads travel inline in the
// JSON body, large or binary ones get a signed PUT URL back and must be
// confirmed once the client finished uploading.
func (a *API) CrateUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data crateUploadOpts
	if err := c.BindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	var payload []byte
	if data.DataBase64 != "" {
		var err error

		payload, err = base64.StdEncoding.DecodeString(data.DataBase64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "data_base64 is not valid base64",
				"requestID": requestID,
			})
			return
		}
	} else if data.Data != "" {
		payload = []byte(data.Data)
	}

	var ttl time.Duration
	if data.ExpiresIn != "" {
		var err error

		ttl, err = time.ParseDuration(data.ExpiresIn)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid expires_in duration provided",
				"requestID": requestID,
			})
			return
		}
	}

	res, err := a.Crates.Upload(c.Request.Context(), middleware.CallerIdentity(c), crate.UploadInput{
		FileName:    data.FileName,
		ContentType: data.ContentType,
		Data:        payload,
		Title:       data.Title,
		Description: data.Description,
		Category:    data.Category,
		Tags:        data.Tags,
		Metadata:    data.Metadata,
		Public:      data.Public,
		Password:    data.Password,
		TTL:         ttl,
	})
	if err != nil {
		abortCoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

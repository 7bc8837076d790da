package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
)

var store = persist.NewMemoryStore(time.Minute)

type cachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// bodyCaptureWriter tees the response body so it can be replayed on a
// cache hit
type bodyCaptureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cacheFor caches a response for a few seconds. The cache key includes the
// resolved caller so one caller's view of a crate is never served to
// another. Only 200s are stored, a crate shared moments ago must not keep
// answering with a stale 404
func cacheFor(sec int) gin.HandlerFunc {
	ttl := time.Second * time.Duration(sec)

	return func(c *gin.Context) {
		key := c.Request.RequestURI + "|" + c.GetString("userID")

		var hit cachedResponse
		if err := store.Get(key, &hit); err == nil {
			c.Data(hit.Status, hit.ContentType, hit.Body)
			c.Abort()
			return
		}

		w := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() == http.StatusOK {
			_ = store.Set(key, cachedResponse{
				Status:      http.StatusOK,
				ContentType: w.Header().Get("Content-Type"),
				Body:        w.buf.Bytes(),
			}, ttl)
		}
	}
}

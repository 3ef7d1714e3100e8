package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipart framing and headers around the file part
const multipartOverhead = 64 * 1024

// BodyLimit caps the request body a little above the validator's size
// ceiling, so an oversized upload is stopped by the transport while the
// multipart body streams in, before the whole payload is buffered. Handlers
// see the trip as *http.MaxBytesError when reading the form.
func BodyLimit(maxFileSize int64) gin.HandlerFunc {
	limit := maxFileSize + multipartOverhead
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

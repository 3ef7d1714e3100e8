package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"customerhub/internal/pkg/response"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request as a structured record and recovers from
// panics with a clean 500 envelope. Internal details never reach the caller.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			if recovered := recover(); recovered != nil {
				logger.Error("panic while handling request",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"error", fmt.Sprintf("%v", recovered),
					"stack", string(debug.Stack()),
				)
				response.Error(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				c.Abort()
				return
			}

			status := c.Writer.Status()
			fields := []any{
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", status,
				"client_ip", c.ClientIP(),
				"latency", time.Since(start).String(),
			}
			if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
				fields = append(fields, "request_id", requestID)
			}
			for _, err := range c.Errors {
				fields = append(fields, "error", err.Error())
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request rejected", fields...)
			default:
				logger.Debug("request served", fields...)
			}
		}()

		c.Next()
	}
}

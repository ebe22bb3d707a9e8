package web

import (
	"net/http"
	"time"

	"github.com/Nephrolytics-ai/audio2art/pkg/logging"
	"github.com/Nephrolytics-ai/audio2art/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// requestContext tags every request with an ID, carried on the request context
// so provider logs can be correlated with the access line.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))

		start := time.Now()
		c.Next()

		logging.NewLogger(c.Request.Context()).Infof("http_request method=%s path=%s status=%d latency_ms=%d",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Milliseconds())
	}
}

func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			log := logging.NewLogger(c.Request.Context())
			log.Error(utils.PanicError(recovered))
			utils.PrintStack("panic serving "+c.Request.URL.Path, log)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "internal server error",
				"request_id": logging.RequestIDFromContext(c.Request.Context()),
			})
		}()
		c.Next()
	}
}

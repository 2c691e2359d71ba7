package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-billing/pkg/middleware/requestid"
)

// ActorHeader carries the identity of the back-office user behind a request.
const ActorHeader = "X-Actor-ID"

// Audit logs every successful request that changes money or profiles.
// Reads are skipped.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		audit.Info("billing_mutation",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("actor", c.GetHeader(ActorHeader)),
			zap.String("request_id", requestid.Value(c)),
			zap.String("ip", c.ClientIP()),
			zap.Time("at", start),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

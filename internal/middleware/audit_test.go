package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Audit(zap.New(core)))
	r.POST("/lessons/:id/payback", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/payments", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/currencies", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/lessons/l1/payback", nil)
	req.Header.Set(ActorHeader, "accountant-7")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/payments", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/currencies", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/lessons/:id/payback", fields["route"])
	assert.Equal(t, "accountant-7", fields["actor"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}

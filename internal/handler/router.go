package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler for route registration.
type Handlers struct {
	Lessons  *LessonHandler
	Payments *PaymentHandler
	Reports  *ReportHandler
	Accounts *AccountHandler
	Wallets  *WalletHandler
	Profiles *ProfileHandler
	Catalog  *CatalogHandler
	Metrics  *MetricsHandler
}

// RegisterRoutes mounts the API under api and operational endpoints on root.
func RegisterRoutes(root *gin.Engine, api *gin.RouterGroup, h Handlers) {
	root.GET("/health", h.Metrics.Health)
	root.GET("/ready", h.Metrics.Ready)
	root.GET("/metrics", h.Metrics.Prometheus)
	api.GET("/metrics/summary", h.Metrics.Snapshot)

	api.PUT("/lessons/:id/status", h.Lessons.UpdateStatus)
	api.POST("/lessons/:id/payback", h.Lessons.Payback)

	api.POST("/payments", h.Payments.Create)
	api.GET("/payments/recent", h.Payments.Recent)

	api.GET("/reports/teachers/:id/earnings", h.Reports.TeacherEarnings)
	api.GET("/reports/companies/:id/spend", h.Reports.CompanySpend)

	api.GET("/students/:id/balance", h.Accounts.StudentBalance)

	api.POST("/wallets/reconcile", h.Wallets.Scan)
	api.POST("/wallets/:kind/:id/reconcile", h.Wallets.Reconcile)

	api.PUT("/profiles", h.Profiles.Provision)

	api.GET("/currencies", h.Catalog.Currencies)
	api.GET("/transaction-types", h.Catalog.TransactionTypes)
	api.DELETE("/catalog/cache", h.Catalog.Invalidate)
}

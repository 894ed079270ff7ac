package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staypay/internal/infra/config"
	"staypay/internal/infra/obs"
)

type CheckinHTTP interface {
	Preview(c *gin.Context)
	ConfirmCheckIn(c *gin.Context)
	ConfirmCheckOut(c *gin.Context)
	Cancel(c *gin.Context)
}

type InvoiceHTTP interface {
	CreateOrSubmit(c *gin.Context)
	Get(c *gin.Context)
	Verify(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	MarkPaid(c *gin.Context)
}

type AuditHTTP interface {
	History(c *gin.Context)
}

type Handlers struct {
	Checkin CheckinHTTP
	Invoice InvoiceHTTP
	Audit   AuditHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Owner-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Checkin != nil {
		api.POST("/checkin/preview", h.Checkin.Preview)
		api.POST("/bookings/:id/checkin", h.Checkin.ConfirmCheckIn)
		api.POST("/bookings/:id/checkout", h.Checkin.ConfirmCheckOut)
		api.POST("/bookings/:id/cancel", h.Checkin.Cancel)
	}
	if h.Invoice != nil {
		api.POST("/invoices", h.Invoice.CreateOrSubmit)
		api.GET("/invoices/:id", h.Invoice.Get)
		api.POST("/invoices/:id/verify", h.Invoice.Verify)
		api.POST("/invoices/:id/approve", h.Invoice.Approve)
		api.POST("/invoices/:id/reject", h.Invoice.Reject)
		api.POST("/invoices/:id/mark-paid", h.Invoice.MarkPaid)
	}
	if h.Audit != nil {
		api.GET("/audit/:entity_type/:entity_id", h.Audit.History)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

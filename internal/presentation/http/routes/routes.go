package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sangkips/receipts-api/internal/config"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/internal/infrastructure/metrics"
	"github.com/sangkips/receipts-api/internal/presentation/http/handler"
	"github.com/sangkips/receipts-api/internal/presentation/http/middleware"
	"github.com/sangkips/receipts-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Business *handler.BusinessHandler
	Receipt  *handler.ReceiptHandler
	Template *handler.TemplateHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Logger          *zap.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
	BusinessRepo    domainRepo.BusinessRepository
	RateLimiter     *middleware.BusinessRateLimiter
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})
	if deps.Metrics != nil && deps.Cfg.Metrics.Enabled {
		router.GET(deps.Cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.BusinessContext(deps.BusinessRepo))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/profile", h.Auth.GetProfile)

	registerBusinessRoutes(protected, h)
	registerReceiptRoutes(protected, h, deps)
	registerTemplateRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerBusinessRoutes(protected *gin.RouterGroup, h *Handlers) {
	business := protected.Group("/business")
	{
		business.GET("", h.Business.List)
		business.GET("/me", h.Business.GetMine)
		business.POST("/me", h.Business.CreateMine)
		business.PATCH("/me", h.Business.UpdateMine)
		business.POST("/:id/sync", h.Business.SyncStatus)
	}
}

func registerReceiptRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		TTL:  deps.Cfg.Idempotency.TTL,
		Now:  deps.Now,
	})

	receipts := protected.Group("/receipts")
	{
		receipts.GET("", h.Receipt.List)
		receipts.POST("", idempotent, h.Receipt.Create)
		receipts.POST("/bulk-sync", idempotent, h.Receipt.BulkSync)
		receipts.GET("/changes", h.Receipt.Changes)
		receipts.GET("/summary", h.Receipt.Summary)
		receipts.GET("/next-number", h.Receipt.NextNumber)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.PATCH("/:id", h.Receipt.Update)
		receipts.PUT("/:id", h.Receipt.Update)
		receipts.DELETE("/:id", h.Receipt.Delete)
		receipts.POST("/:id/mark-paid", h.Receipt.MarkPaid)
		receipts.POST("/:id/sync-status", h.Receipt.SyncStatus)
		receipts.POST("/:id/print", h.Printer.PrintReceipt)
	}
}

func registerTemplateRoutes(protected *gin.RouterGroup, h *Handlers) {
	templates := protected.Group("/templates")
	{
		templates.GET("", h.Template.List)
		templates.POST("", h.Template.Create)
		templates.DELETE("/:id", h.Template.Delete)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/printer/status", h.Printer.GetStatus)
}

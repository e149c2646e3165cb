package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/server/handlers"
)

// Handlers groups the HTTP handler adapters served by the router.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Items    *handlers.ItemHandler
	Sales    *handlers.SaleHandler
	Lots     *handlers.LotHandler
	CashFlow *handlers.CashFlowHandler
	Reports  *handlers.ReportHandler
	Stream   *handlers.StreamHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("", h.Auth.RequireSession())
	secured.POST("/auth/password", h.Auth.ChangePassword)

	items := secured.Group("/items")
	items.GET("", h.Items.List)
	items.GET("/sellable", h.Items.Sellable)
	items.GET("/stats", h.Items.Stats)
	items.GET("/:id", h.Items.Get)
	items.POST("", h.Items.Create)
	items.PUT("/:id", h.Items.Update)
	items.DELETE("/:id", h.Items.Delete)

	sales := secured.Group("/sales")
	sales.GET("", h.Sales.List)
	sales.GET("/stats", h.Sales.Stats)
	sales.GET("/:id", h.Sales.Get)
	sales.POST("", h.Sales.Commit)
	sales.PUT("/:id", h.Sales.Edit)
	sales.DELETE("/:id", h.Sales.Delete)

	lots := secured.Group("/lots")
	lots.GET("", h.Lots.List)
	lots.GET("/:supplier/:date", h.Lots.Get)
	lots.POST("/:supplier/:date/split/adjust", h.Lots.AdjustSplit)
	lots.PUT("/:supplier/:date/split", h.Lots.SaveSplit)

	cash := secured.Group("/cashflow")
	cash.GET("/entries", h.CashFlow.List)
	cash.GET("/entries/:id", h.CashFlow.Get)
	cash.POST("/entries", h.CashFlow.Create)
	cash.PUT("/entries/:id", h.CashFlow.Update)
	cash.DELETE("/entries/:id", h.CashFlow.Delete)
	cash.GET("/position", h.CashFlow.Position)
	cash.GET("/split", h.CashFlow.Split)
	cash.PUT("/split", h.CashFlow.SaveSplit)
	cash.POST("/split/adjust", h.CashFlow.AdjustSplit)

	reports := secured.Group("/reports")
	reports.GET("/general", h.Reports.General)
	reports.GET("/monthly", h.Reports.Monthly)
	reports.GET("/export.xlsx", h.Reports.Export)

	notifications := secured.Group("/notifications")
	notifications.POST("/weekly-summary", h.Reports.SendWeeklySummary)
	notifications.POST("/send-message", h.Reports.SendMessage)

	secured.GET("/stream/:collection", h.Stream.Stream)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request completed", fields...)
	}
}

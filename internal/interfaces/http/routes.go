package http

import (
	"time"

	"github.com/gin-gonic/gin"
)

type RouteOptions struct {
	AdminToken      string
	FrontendOrigins []string
	RateLimit       int64
	RateWindow      time.Duration
}

func SetupRoutes(router *gin.Engine, handler *Handler, opts RouteOptions) {
	router.Use(CORS(opts.FrontendOrigins))

	admin := RequireAdmin(opts.AdminToken)

	api := router.Group("/api")
	api.Use(RateLimit(opts.RateLimit, opts.RateWindow))
	{
		api.GET("/health", handler.Health)
		api.GET("/admin/verify", admin, handler.VerifyAdmin)
		api.GET("/exchanges", handler.ListExchanges)
		api.GET("/price/:ticker", handler.GetPrice)

		api.POST("/holdings/calc", handler.CalculateHoldings)
		api.GET("/holdings", handler.ListHoldings)
		api.PUT("/holdings", admin, handler.ReplaceHoldings)
		api.POST("/holdings/defaults", admin, handler.RefreshDefaults)
	}
}

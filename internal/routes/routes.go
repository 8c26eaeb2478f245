package routes

import (
	"slices"
	"time"

	"codpage_back_end/internal/config"
	"codpage_back_end/internal/handlers"
	"codpage_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config, limiter *middleware.GenerateLimiter) {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	api.GET("/health", h.Health)

	// Users
	api.GET("/users", h.ListUsers())
	api.POST("/users", h.CreateUser())
	api.GET("/users/:id", h.GetUser())
	api.PUT("/users/:id", h.UpdateUser())
	api.DELETE("/users/:id", h.DeleteUser())

	// Products ("/search" avant "/:id")
	api.GET("/products", h.ListProducts())
	api.GET("/products/search", h.SearchProducts)
	api.POST("/products", h.CreateProduct())
	api.GET("/products/:id", h.GetProduct())
	api.PUT("/products/:id", h.UpdateProduct())
	api.DELETE("/products/:id", h.DeleteProduct())

	// Orders
	api.GET("/orders", h.ListOrders())
	api.POST("/orders", h.CreateOrder())
	api.GET("/orders/:id", h.GetOrder())
	api.PUT("/orders/:id", h.UpdateOrder())
	api.DELETE("/orders/:id", h.DeleteOrder())

	// Landing pages
	landing := api.Group("/landing")
	landing.POST("/validate-url", h.ValidateURL)
	landing.POST("/generate", middleware.GenerateRateLimit(limiter), h.Generate)
	landing.GET("/generate/ws", h.GenerateWebSocket)
	landing.POST("/publish", h.Publish)
	landing.GET("/pages/:id", h.GetPage)

	// COD
	api.GET("/cod/form", h.CODForm)
	api.POST("/cod/orders", h.SubmitCODOrder)
}

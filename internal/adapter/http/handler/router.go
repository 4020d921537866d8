package handler

import (
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/http/middleware"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Orchestrator   ports.PaymentOrchestrator
	AuthSvc        ports.AuthService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/token", authHandler.Login)
	}

	// --- JWT-authenticated payment routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	paymentHandler := NewPaymentHandler(deps.Orchestrator)
	orderHandler := NewOrderHandler(deps.Orchestrator)

	payments := v1.Group("/payments", jwtAuth)
	{
		payments.POST("/purchase", paymentHandler.Purchase)
		payments.POST("/authorize", paymentHandler.Authorize)
	}

	orders := v1.Group("/orders", jwtAuth)
	{
		orders.GET("/:orderID", orderHandler.GetOrder)
		orders.POST("/:orderID/capture", paymentHandler.Capture)
		orders.POST("/:orderID/void", paymentHandler.Void)
		orders.POST("/:orderID/refund", paymentHandler.Refund)
	}

	return r
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/config"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/gateway"
	httpHandler "github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/http/handler"
	pgStorage "github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/storage/postgres"
	redisStorage "github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/adapter/storage/redis"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/domain"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/core/ports"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/internal/service"
	"github.com/rraj-sweb/Talentica-Payment-Processing-System-sub001/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Payment Processing System")

	if err := cfg.Gateway.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid gateway configuration")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	orderRepo := pgStorage.NewOrderRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	pmRepo := pgStorage.NewPaymentMethodRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	claimStore := redisStorage.NewClaimStore(rdb)
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	authSvc := service.NewAuthService(cfg.Auth.APIKey, cfg.Auth.APISecretHash, hashSvc, tokenSvc)

	idempotencyMgr := service.NewIdempotencyManager(
		idempotencyRepo,
		idempotencyCache,
		claimStore,
		cfg.Policy.IdempotencyRetention,
		cfg.Policy.ClaimTTL,
		log,
	)

	// Initialize the card gateway client and orchestrator
	gatewayClient := gateway.NewClient(cfg.Gateway, log)
	stateMachine := domain.NewStateMachine(cfg.Policy.SettlementCutoff)
	errorMapper := service.NewErrorMapper()

	orchestrator := service.NewPaymentOrchestrator(
		orderRepo,
		txRepo,
		pmRepo,
		idempotencyMgr,
		gatewayClient,
		stateMachine,
		errorMapper,
		transactor,
		service.OrchestratorConfig{
			GatewayTimeout:       cfg.Gateway.Timeout,
			IdempotencyRetention: cfg.Policy.IdempotencyRetention,
		},
		log,
	)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Orchestrator:   orchestrator,
		AuthSvc:        authSvc,
		TokenSvc:       tokenSvc,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

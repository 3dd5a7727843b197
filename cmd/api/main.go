package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/api"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/middleware"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/repository/postgres"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/pubsub"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/queue"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/storage"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/worker"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

// @title           IG Shop Agent API
// @version         2.0
// @description     Instagram DM automation platform for merchants.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	// Initialize logger
	appLogger := logger.NewLogger(os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		appLogger.Fatal("Failed to load config", err)
	}

	// Missing platform credentials degrade the service (unsigned webhooks,
	// fallback AI replies) but must not stop a dev instance from booting.
	if missing := cfg.Validate(); len(missing) > 0 {
		appLogger.Warn("Missing critical configuration",
			zap.String("keys", strings.Join(missing, ", ")))
	}

	dbConnections, err := config.NewDatabaseConnections()
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer dbConnections.Close()

	appLogger.Info("Database connections established - writer and reader connected")

	// Initialize Redis
	redisConfig := config.DefaultRedisConfig()
	redisClient, err := redisConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	// Initialize Redis pub/sub
	redisPubSub := pubsub.NewRedisPubSub(redisClient, appLogger)

	// Initialize S3 image store
	s3Config := config.DefaultS3Config()
	s3Client, err := s3Config.GetClient(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to connect to S3", err)
	}
	imageStore := storage.NewImageStore(s3Client, s3Config)

	repo := postgres.NewPostgresRepository(dbConnections)

	// Initialize services
	merchantService := service.NewMerchantService(repo)
	aiService := service.NewAIService(cfg, appLogger)
	instagramService := service.NewInstagramService(cfg, appLogger)
	webhookService := service.NewWebhookService(
		cfg.MetaAppSecret,
		cfg.MetaWebhookVerifyToken,
		cfg.IsProduction(),
		merchantService,
		aiService,
		instagramService,
		redisPubSub,
		appLogger,
	)

	// Webhook handoff queue. The default in-process queue keeps a single
	// instance self-contained; SQS hands payloads to separate relay workers.
	var (
		webhookQueue  queue.Queue
		webhookWorker *worker.WebhookWorker
	)
	if os.Getenv("WEBHOOK_QUEUE_BACKEND") == "sqs" {
		sqsConfig := config.DefaultSQSConfig()
		sqsClient, err := sqsConfig.GetClient()
		if err != nil {
			appLogger.Fatal("Failed to connect to SQS", err)
		}
		webhookQueue = queue.NewSQSQueue(sqsClient, sqsConfig)
		appLogger.Info("Webhook handoff via SQS; relay workers consume the queue")
	} else {
		memoryQueue := queue.NewMemoryQueue(cfg.WebhookQueueSize)
		webhookQueue = memoryQueue
		webhookWorker = worker.NewWebhookWorker(memoryQueue, webhookService, appLogger, cfg.WebhookWorkerCount)
		webhookWorker.Start()
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient, appLogger)
	validationMiddleware := middleware.NewValidationMiddleware(appLogger)

	// Initialize server
	server := api.NewServer(
		cfg,
		webhookService,
		merchantService,
		aiService,
		instagramService,
		webhookQueue,
		imageStore,
		authMiddleware,
		rateLimitMiddleware,
		validationMiddleware,
		appLogger,
		redisPubSub,
	)

	// Start WebSocket hub
	server.StartWebSocketHub()

	// Initialize router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "environment": cfg.Environment})
	})

	// Platform webhook endpoints stay outside the dashboard API group
	server.SetupWebhookRoutes(router)

	// Setup API routes
	apiGroup := router.Group("/api/v1")
	server.SetupRoutes(apiGroup)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	// Shutdown the HTTP server first so no new deliveries are accepted, then
	// drain the background workers.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	if webhookWorker != nil {
		webhookWorker.Stop()
	}
	server.StopWebSocketHub()

	appLogger.Info("Server exiting")
	appLogger.Sync()
}

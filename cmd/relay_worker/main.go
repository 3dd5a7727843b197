package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/repository/postgres"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/pubsub"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/queue"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/worker"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

// The relay worker consumes webhook payloads from SQS and runs the full
// processing pipeline: merchant resolution, quota check, reply generation and
// dispatch. It pairs with an API instance configured with
// WEBHOOK_QUEUE_BACKEND=sqs.
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

	if missing := cfg.Validate(); len(missing) > 0 {
		appLogger.Warn("Missing critical configuration",
			zap.String("keys", strings.Join(missing, ", ")))
	}

	dbConnections, err := config.NewDatabaseConnections()
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer dbConnections.Close()

	appLogger.Info("Database connections established for relay worker")

	// Initialize Redis for the dashboard conversation stream
	redisConfig := config.DefaultRedisConfig()
	redisClient, err := redisConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	redisPubSub := pubsub.NewRedisPubSub(redisClient, appLogger)

	// Initialize SQS
	sqsConfig := config.DefaultSQSConfig()
	sqsClient, err := sqsConfig.GetClient()
	if err != nil {
		appLogger.Fatal("Failed to connect to SQS", err)
	}
	sqsQueue := queue.NewSQSQueue(sqsClient, sqsConfig)

	appLogger.Info("SQS connection established for relay worker")

	repo := postgres.NewPostgresRepository(dbConnections)

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

	// Initialize SQS worker
	sqsWorker := worker.NewSQSWorker(
		sqsQueue,
		webhookService,
		appLogger,
		cfg.WebhookWorkerCount,
		5*time.Second, // Poll every 5 seconds
	)

	// Start the worker
	sqsWorker.Start()
	appLogger.Info("Relay worker started")

	// Wait for interrupt signal to gracefully shutdown the worker
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Stop the worker
	appLogger.Info("Shutting down relay worker...")
	sqsWorker.Stop()
	redisPubSub.Close()
	appLogger.Info("Relay worker stopped")
	appLogger.Sync()
}

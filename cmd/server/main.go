// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/socialify/inbox-backend/internal/ai"
	"github.com/socialify/inbox-backend/internal/cache"
	"github.com/socialify/inbox-backend/internal/config"
	"github.com/socialify/inbox-backend/internal/controller"
	"github.com/socialify/inbox-backend/internal/db"
	"github.com/socialify/inbox-backend/internal/handler"
	"github.com/socialify/inbox-backend/internal/logger"
	"github.com/socialify/inbox-backend/internal/provider"
	"github.com/socialify/inbox-backend/internal/queue"
	"github.com/socialify/inbox-backend/internal/repository"
	"github.com/socialify/inbox-backend/internal/service"
	"github.com/socialify/inbox-backend/internal/vault"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "inbox-server")
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer zlog.Sync()

	database, err := db.Open(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	tokenVault, err := vault.New(cfg.VaultSecret)
	if err != nil {
		zlog.Fatal("failed to initialize credential vault", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	invalidator := cache.NewInvalidator(redisClient, zlog)

	tenantRepo := &repository.TenantRepository{DB: database}
	messageRepo := &repository.MessageRepository{DB: database}
	webhookRepo := &repository.WebhookEventRepository{DB: database}

	classifier := ai.NewClassifier(cfg.PredictionURL, cfg.PredictionTimeout, zlog)
	enrichService := &service.EnrichService{
		MessageRepo: messageRepo,
		Classifier:  classifier,
		Cache:       invalidator,
		Logger:      zlog,
	}

	// In-memory dispatcher by default; rabbitmq hands jobs to cmd/worker.
	var (
		enrichQueue queue.Queue
		dispatcher  *queue.Dispatcher
	)
	switch cfg.QueueDriver {
	case "rabbitmq":
		publisher, err := queue.NewAmqpPublisher(cfg.AmqpURL, cfg.AmqpQueue, zlog)
		if err != nil {
			zlog.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer publisher.Close()
		enrichQueue = publisher
	default:
		dispatcher = queue.NewDispatcher(cfg.EnrichWorkers, cfg.EnrichQueueSize, enrichService.HandleJob, zlog)
		enrichQueue = dispatcher
	}

	ingestService := &service.IngestService{
		TenantRepo:  tenantRepo,
		MessageRepo: messageRepo,
		WebhookRepo: webhookRepo,
		Cache:       invalidator,
		Queue:       enrichQueue,
		Logger:      zlog,
	}

	sendService := &service.SendService{
		TenantRepo:  tenantRepo,
		MessageRepo: messageRepo,
		Vault:       tokenVault,
		Sender:      provider.NewWhatsAppClient(cfg.GraphAPIBaseURL, zlog),
		Cache:       invalidator,
		Logger:      zlog,
	}

	webhookController := &controller.WebhookController{
		IngestService: ingestService,
		VerifyToken:   cfg.WebhookVerifyToken,
		Logger:        zlog,
	}
	messageController := &controller.MessageController{
		SendService: sendService,
		Logger:      zlog,
	}
	messageHandler := handler.NewMessageHandler(messageRepo)
	accountHandler := handler.NewAccountHandler(tenantRepo)

	r := chi.NewRouter()

	r.Get("/webhook", webhookController.Verify)
	r.Post("/webhook", webhookController.Receive)

	r.Post("/v2/messages/send", messageController.SendMessage)
	r.Get("/v2/messages", messageHandler.ListMessagesHandler)
	r.Get("/v2/accounts", accountHandler.ListAccountsHandler)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server shutdown failed", zap.Error(err))
	}
	if dispatcher != nil {
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("dispatcher drain incomplete", zap.Error(err))
		}
	}
}

// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/socialify/inbox-backend/internal/ai"
	"github.com/socialify/inbox-backend/internal/cache"
	"github.com/socialify/inbox-backend/internal/config"
	"github.com/socialify/inbox-backend/internal/db"
	"github.com/socialify/inbox-backend/internal/logger"
	"github.com/socialify/inbox-backend/internal/queue"
	"github.com/socialify/inbox-backend/internal/repository"
	"github.com/socialify/inbox-backend/internal/service"
)

// Consumes enrichment jobs published by the server when QUEUE_DRIVER is
// rabbitmq. A failed job is acked anyway: enrichment is advisory and is
// never retried.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "inbox-worker")
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer zlog.Sync()

	database, err := db.Open(cfg)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	enrichService := &service.EnrichService{
		MessageRepo: &repository.MessageRepository{DB: database},
		Classifier:  ai.NewClassifier(cfg.PredictionURL, cfg.PredictionTimeout, zlog),
		Cache:       cache.NewInvalidator(redisClient, zlog),
		Logger:      zlog,
	}

	conn, err := amqp.Dial(cfg.AmqpURL)
	if err != nil {
		zlog.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		zlog.Fatal("failed to open channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(cfg.AmqpQueue, true, false, false, false, nil)
	if err != nil {
		zlog.Fatal("failed to declare queue", zap.Error(err))
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		zlog.Fatal("failed to register consumer", zap.Error(err))
	}

	zlog.Info("worker running", zap.String("queue", q.Name))
	for d := range deliveries {
		var job queue.EnrichmentJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			zlog.Warn("discarding malformed job", zap.Error(err))
			d.Ack(false)
			continue
		}

		if err := enrichService.HandleJob(context.Background(), job); err != nil {
			zlog.Warn("enrichment failed",
				zap.Int64("message_record_id", job.MessageRecordID),
				zap.Error(err),
			)
		}
		d.Ack(false)
	}
}

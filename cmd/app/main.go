package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/legalbook/legalbook/config"
	"github.com/legalbook/legalbook/internal/auth"
	"github.com/legalbook/legalbook/internal/bootstrap"
	"github.com/legalbook/legalbook/internal/cache"
	"github.com/legalbook/legalbook/internal/gateway"
	"github.com/legalbook/legalbook/internal/kafka"
	"github.com/legalbook/legalbook/internal/repository"
	"github.com/legalbook/legalbook/internal/session"
	"github.com/legalbook/legalbook/internal/workflow"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Workflow.InstanceTTLMinutes)*time.Minute)
	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	gatewayClient := gateway.NewClient(cfg.Gateway, logger)
	sessionRepo := repository.NewSessionRepository(pool)
	sessions := session.NewManager(sessionRepo, cfg.Session, logger)

	authService := auth.NewService(gatewayClient, logger)
	workflowService := workflow.NewService(
		redisCache,
		gatewayClient,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Workflow.ActionLockTTLSeconds)*time.Second,
		logger,
		workflow.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, authService, workflowService, gatewayClient, sessions); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

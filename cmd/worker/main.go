package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/legalbook/legalbook/config"
	"github.com/legalbook/legalbook/internal/email"
	"github.com/legalbook/legalbook/internal/kafka"
	"github.com/legalbook/legalbook/internal/repository"
	"go.uber.org/zap"
)

const consumeRetryDelay = 5 * time.Second

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	sessionRepo := repository.NewSessionRepository(pool)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	emailSender := email.NewSender(logger)

	// Reader errors are retried so a broker hiccup does not leave the worker
	// running but deaf to notifications.
	go func() {
		for {
			err := consumer.Consume(ctx, emailSender.Send)
			if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			logger.Warn("consumer stopped, retrying", zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(consumeRetryDelay):
			}
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.SessionSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			deleted, err := sessionRepo.DeleteExpiredBefore(ctx, time.Now())
			if err != nil {
				logger.Warn("sweep sessions", zap.Error(err))
				continue
			}
			if deleted > 0 {
				logger.Info("swept expired sessions", zap.Int64("count", deleted))
			}
		case s := <-sig:
			logger.Info("received signal, shutting down", zap.String("signal", s.String()))
			return
		}
	}
}

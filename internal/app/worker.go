package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-timeoff/internal/bootstrap"
	"go-timeoff/internal/config"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/messaging/kafka/producer"
	"go-timeoff/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays the outbox to kafka until SIGINT or SIGTERM.
func RunWorker(cfg config.Config, audit bootstrap.AuditLogger) error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, cfg.ConnectRetries)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit.Log(ctx, bootstrap.AuditLog{
		Action:  bootstrap.AuditServerStart,
		Message: "worker started",
		Meta:    map[string]any{"broker": cfg.KafkaBroker},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, cfg.OutboxPollInterval)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("worker shutting down")
	audit.Log(context.Background(), bootstrap.AuditLog{
		Action:  bootstrap.AuditServerShutdown,
		Message: "worker is shutting down",
		Meta:    map[string]any{"signal": sig.String()},
	})
	cancel()
	<-done

	return nil
}

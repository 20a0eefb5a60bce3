package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-timeoff/internal/balance"
	"go-timeoff/internal/bootstrap"
	"go-timeoff/internal/config"
	"go-timeoff/internal/events"
	"go-timeoff/internal/messaging/kafka/consumer"
	"go-timeoff/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const employeeLifecycleGroupID = "go-timeoff-leave-balance"

// RunConsumer seeds leave balances from employee lifecycle events until
// SIGINT or SIGTERM.
func RunConsumer(cfg config.Config, audit bootstrap.AuditLogger) error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, cfg.ConnectRetries)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// cache invalidation is best effort, consumer tetap jalan tanpa redis
	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		logger.Warn("redis unavailable, seeding without cache invalidation", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	balanceService := balance.NewService(balance.NewRepository(gormDB), rdb, cfg.DefaultBalance, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.EmployeeLifecycleTopic,
		GroupID:        employeeLifecycleGroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit.Log(ctx, bootstrap.AuditLog{
		Action:  bootstrap.AuditServerStart,
		Message: "consumer started",
		Meta:    map[string]any{"broker": cfg.KafkaBroker},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.ConsumeEmployeeLifecycle(ctx, reader, balanceService, logger)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("consumer shutting down")
	audit.Log(context.Background(), bootstrap.AuditLog{
		Action:  bootstrap.AuditServerShutdown,
		Message: "consumer is shutting down",
		Meta:    map[string]any{"signal": sig.String()},
	})
	cancel()
	<-done

	return nil
}

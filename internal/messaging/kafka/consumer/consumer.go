package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"go-timeoff/internal/balance"
	balanceerrors "go-timeoff/internal/balance/errors"
	"go-timeoff/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type BalanceSeeder interface {
	Seed(ctx context.Context, companyID, employeeID string) (balance.BalanceResponse, error)
}

var (
	retryBackoff    = time.Second
	maxRetryBackoff = 30 * time.Second
)

// ConsumeEmployeeLifecycle seeds a leave balance for every employee_created
// event. A message is committed once it is handled or known to be a
// duplicate. Transient failures are retried on the same message, so the
// offset never moves past an unseeded employee. A failed fetch backs off on
// the same schedule; a closed reader (io.EOF) ends the loop.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	seeder BalanceSeeder,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	fetchBackoff := retryBackoff
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			if errors.Is(err, io.EOF) {
				log.Info("employee lifecycle reader closed")
				return
			}
			log.Error("fetch employee lifecycle message failed",
				zap.Duration("backoff", fetchBackoff),
				zap.Error(err),
			)
			if !sleep(ctx, fetchBackoff) {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			fetchBackoff = min(fetchBackoff*2, maxRetryBackoff)
			continue
		}
		fetchBackoff = retryBackoff

		backoff := retryBackoff
		for {
			err := handleMessage(ctx, msg, seeder, log)
			if err == nil {
				break
			}
			log.Error("seed leave balance failed, retrying",
				zap.Int64("offset", msg.Offset),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			if !sleep(ctx, backoff) {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			backoff = min(backoff*2, maxRetryBackoff)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit employee lifecycle message failed", zap.Error(err))
		}
	}
}

// sleep waits d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// handleMessage returns an error only when the message should be retried.
func handleMessage(ctx context.Context, msg kafkago.Message, seeder BalanceSeeder, log *zap.Logger) error {
	var event events.EmployeeCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode employee lifecycle event failed", zap.Error(err))
		return nil
	}

	if event.EventType != events.EventEmployeeCreated {
		log.Debug("skip employee lifecycle event", zap.String("event_type", event.EventType))
		return nil
	}

	_, err := seeder.Seed(ctx, event.CompanyID, event.EmployeeID)
	switch {
	case err == nil:
		log.Info("leave balance seeded from employee_created event",
			zap.String("request_id", event.RequestID),
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
		)
		return nil
	case errors.Is(err, balanceerrors.ErrBalanceAlreadyExists):
		log.Warn("leave balance already exists for event, skipping",
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
		)
		return nil
	case errors.Is(err, balanceerrors.ErrInvalidCompanyID), errors.Is(err, balanceerrors.ErrInvalidEmployeeID):
		log.Error("employee_created event has invalid ids, skipping",
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
		)
		return nil
	default:
		return err
	}
}

package main

import (
	"go-timeoff/internal/app"
	"go-timeoff/internal/bootstrap"
	"go-timeoff/internal/config"
	"go-timeoff/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()
	if err := cfg.ValidateMessaging(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	apperror.Init()

	if err := app.RunConsumer(cfg, bootstrap.NewStdoutAuditLogger("consumer", logger)); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}

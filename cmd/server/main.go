package main

import (
	"context"
	"log"

	"github.com/godilite/insights-server/internal/app"
	"github.com/godilite/insights-server/internal/config"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load(".env")

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("Application exited with error", zap.Error(err))
	}
}

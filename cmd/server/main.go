package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/coachsync/coachsync/internal/client/cli"
	"github.com/coachsync/coachsync/internal/client/config"
	"github.com/coachsync/coachsync/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}

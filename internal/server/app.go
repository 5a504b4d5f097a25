// Package server initializes and runs the API server: it opens storage
// backends, wires the token service and HTTP surface, and handles graceful
// shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/coachsync/coachsync/internal/logging"
	"github.com/coachsync/coachsync/internal/server/auth"
	"github.com/coachsync/coachsync/internal/server/config"
	"github.com/coachsync/coachsync/internal/server/db"
	"github.com/coachsync/coachsync/internal/server/httpapi"
	"github.com/coachsync/coachsync/internal/server/repositories/events"
	"github.com/coachsync/coachsync/internal/server/repositories/exercises"
	"github.com/coachsync/coachsync/internal/server/repositories/users"
	"github.com/coachsync/coachsync/internal/server/services"
	"github.com/coachsync/coachsync/internal/server/uploads"
)

type App struct {
	config *config.Config
	logger logging.Logger
	router *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	revocation := auth.NewRedisRevocationList(rdb)

	tokens := auth.NewManager(cfg, revocation, logger)
	userService := services.NewUserService(database, tokens)

	handlers := httpapi.NewHandlers(
		userService,
		events.NewPostgresRepository(database),
		exercises.NewPostgresRepository(database),
		uploads.NewService(cfg),
		logger,
	)
	middleware := httpapi.NewAuthMiddleware(tokens, users.NewPostgresRepository(database), logger)

	router := httpapi.NewRouter(handlers, middleware)
	srv := httpapi.NewServer(cfg.EndpointAddr, router, logger)

	return &App{config: cfg, logger: logger, router: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.router.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}

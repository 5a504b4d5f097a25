// Package cli implements the interactive coachsync client: a small REPL
// over the REST API with an offline-first local store.
package cli

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/coachsync/coachsync/internal/client/client"
	"github.com/coachsync/coachsync/internal/client/config"
	"github.com/coachsync/coachsync/internal/client/offline"
	"github.com/coachsync/coachsync/internal/client/repositories/metadata"
	"github.com/coachsync/coachsync/internal/client/sync"
	"github.com/coachsync/coachsync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config   *config.Config
	api      *client.APIClient
	store    *offline.Store
	syncer   *sync.Manager
	logger   logging.Logger
	reader   *bufio.Reader
	userName string
	Mode     Mode
}

func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, cfg.DatabaseFile)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := offline.NewStore(db, logger)

	return &App{
		config: cfg,
		api:    client.NewAPIClient(cfg.ServerBaseURL),
		store:  store,
		syncer: sync.NewManager(store, cfg.ServerBaseURL, logger),
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		Mode:   ModeOffline,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	// Restore the username from a previous session so the prompt is
	// meaningful before the first login.
	if name, err := a.store.Metadata().Get(ctx, metadata.KeyUsername); err == nil {
		a.userName = string(name)
	}
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) accessToken(ctx context.Context) string {
	token, err := a.store.Metadata().Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		a.logger.Error(ctx, "failed to read stored token", "error", err)
		return ""
	}
	return string(token)
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		printlnFn("Switched to", string(mode), "mode")
	}
}

// StartOnlineStatusWatcher probes the health endpoint on a ticker and flips
// the mode accordingly. Switching back online also triggers a sync pass so
// queued mutations drain without user action.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(probeCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
				continue
			}
			wasOffline := a.Mode != ModeOnline
			a.setMode(ModeOnline)
			if wasOffline {
				_ = a.Sync(ctx)
			}

		case <-ctx.Done():
			return
		}
	}
}

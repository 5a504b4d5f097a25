// Package sync replays queued offline mutations against the server once
// connectivity returns.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coachsync/coachsync/internal/client/models"
	"github.com/coachsync/coachsync/internal/client/offline"
	"github.com/coachsync/coachsync/internal/client/repositories/metadata"
	"github.com/coachsync/coachsync/internal/logging"
)

// allowedActions maps queue actions to their server endpoints. A queued
// action outside this set is counted as failed without a request; it will
// never be sent anywhere.
var allowedActions = map[string]struct{}{
	models.WorkoutActionLog:      {},
	models.WorkoutActionComplete: {},
	models.WorkoutActionSkip:     {},
	models.MetricActionLog:       {},
}

// Result is the tally of one sync pass.
type Result struct {
	Synced int
	Failed int
}

// Manager replays the mutation queue strictly in insertion order. Entries
// are replayed best-effort: a failing entry is counted and skipped, never
// retried within the pass, and never stops later entries.
type Manager struct {
	store   *offline.Store
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

func NewManager(store *offline.Store, baseURL string, logger logging.Logger) *Manager {
	return &Manager{
		store:   store,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Sync performs one replay pass over the queue.
//
// An empty queue returns {0,0} without touching the network. A missing
// stored token marks every entry failed, also without touching the
// network. After the pass, any success clears the whole queue; a pass
// with zero successes leaves the queue untouched for the next attempt.
func (m *Manager) Sync(ctx context.Context) (Result, error) {
	pending, err := m.store.Queue(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read mutation queue: %w", err)
	}
	if len(pending) == 0 {
		return Result{}, nil
	}

	token, err := m.store.Metadata().Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read stored token: %w", err)
	}
	if len(token) == 0 {
		m.logger.Warn(ctx, "sync skipped: no stored token", "pending", len(pending))
		return Result{Failed: len(pending)}, nil
	}

	var result Result
	for _, item := range pending {
		if err := m.replay(ctx, &item, string(token)); err != nil {
			m.logger.Warn(ctx, "mutation replay failed",
				"id", item.ID, "action", item.Action, "error", err)
			result.Failed++
			continue
		}
		result.Synced++
	}

	if result.Synced > 0 {
		if err := m.store.ClearQueue(ctx); err != nil {
			return result, fmt.Errorf("failed to clear mutation queue: %w", err)
		}
	}

	m.logger.Info(ctx, "sync finished", "synced", result.Synced, "failed", result.Failed)
	return result, nil
}

func (m *Manager) replay(ctx context.Context, item *models.QueuedMutation, token string) error {
	if _, ok := allowedActions[item.Action]; !ok {
		return fmt.Errorf("unknown action %q", item.Action)
	}

	url := m.baseURL + "/api/" + item.Action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(item.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

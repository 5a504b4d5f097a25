// Package offline is the facade over the local SQLite state: the cached
// exercise library, the pending mutation queue, and session metadata.
package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coachsync/coachsync/internal/client/models"
	"github.com/coachsync/coachsync/internal/client/repositories/exercises"
	"github.com/coachsync/coachsync/internal/client/repositories/metadata"
	"github.com/coachsync/coachsync/internal/client/repositories/queue"
	"github.com/coachsync/coachsync/internal/dbx"
	"github.com/coachsync/coachsync/internal/logging"
)

// Store coordinates the three local collections over a single SQLite
// database handle.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

func NewStore(db *sql.DB, logger logging.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// extractID pulls the cache key out of a raw exercise payload. Entries
// are keyed by "id", with "exercise_id" accepted as a fallback for
// payloads produced by older server versions.
func extractID(data json.RawMessage) (string, error) {
	var probe struct {
		ID         string `json:"id"`
		ExerciseID string `json:"exercise_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("failed to parse exercise payload: %w", err)
	}
	if probe.ID != "" {
		return probe.ID, nil
	}
	if probe.ExerciseID != "" {
		return probe.ExerciseID, nil
	}
	return "", fmt.Errorf("exercise payload has no id")
}

// CacheExercises upserts the batch atomically. If any entry lacks an id
// the whole batch is rejected and the cache is left as it was.
func (s *Store) CacheExercises(ctx context.Context, items []json.RawMessage) error {
	now := time.Now()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := exercises.NewSQLiteRepository(tx)
		for _, data := range items {
			id, err := extractID(data)
			if err != nil {
				return err
			}
			e := &models.CachedExercise{ID: id, Data: data, CachedAt: now}
			if err := repo.Upsert(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// CachedExercises returns the cached payloads with cache metadata stripped.
func (s *Store) CachedExercises(ctx context.Context) ([]json.RawMessage, error) {
	return exercises.NewSQLiteRepository(s.db).GetAllData(ctx)
}

// Enqueue appends a mutation to the replay queue.
func (s *Store) Enqueue(ctx context.Context, action string, payload json.RawMessage) error {
	id, err := queue.NewSQLiteRepository(s.db).Append(ctx, action, payload)
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "mutation queued", "id", id, "action", action)
	return nil
}

// Queue lists pending mutations in insertion order.
func (s *Store) Queue(ctx context.Context) ([]models.QueuedMutation, error) {
	return queue.NewSQLiteRepository(s.db).GetAll(ctx)
}

// ClearQueue drops all pending mutations.
func (s *Store) ClearQueue(ctx context.Context) error {
	return queue.NewSQLiteRepository(s.db).Clear(ctx)
}

// Metadata exposes the session KV store.
func (s *Store) Metadata() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// ClearAll wipes the exercise cache and the mutation queue in one
// transaction. Session metadata is managed separately by logout.
func (s *Store) ClearAll(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := exercises.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return queue.NewSQLiteRepository(tx).Clear(ctx)
	})
}

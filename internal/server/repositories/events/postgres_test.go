package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachsync/coachsync/internal/server/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE workout_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	require.NoError(t, err)

	return db
}

func TestInsertAndListByUser(t *testing.T) {
	db := setupDB(t)
	r := NewPostgresRepository(db)
	ctx := context.Background()

	e1 := &models.WorkoutEvent{
		UserID:  "user-1",
		Kind:    models.EventWorkoutLog,
		Payload: []byte(`{"exerciseId":"squat","reps":5}`),
	}
	require.NoError(t, r.Insert(ctx, e1))
	require.NotEmpty(t, e1.ID)

	e2 := &models.WorkoutEvent{
		UserID:  "user-1",
		Kind:    models.EventMetricLog,
		Payload: []byte(`{"metric":"weight","value":82.5}`),
	}
	require.NoError(t, r.Insert(ctx, e2))

	// CURRENT_TIMESTAMP has second resolution; force distinct times so the
	// submission order is unambiguous.
	base := time.Now().UTC().Truncate(time.Second)
	_, err := db.Exec(`UPDATE workout_events SET created_at = $1 WHERE id = $2`, base, e1.ID)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE workout_events SET created_at = $1 WHERE id = $2`, base.Add(time.Second), e2.ID)
	require.NoError(t, err)

	require.NoError(t, r.Insert(ctx, &models.WorkoutEvent{
		UserID:  "user-2",
		Kind:    models.EventWorkoutSkip,
		Payload: []byte(`{}`),
	}))

	list, err := r.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, models.EventWorkoutLog, list[0].Kind)
	assert.JSONEq(t, `{"exerciseId":"squat","reps":5}`, string(list[0].Payload))
	assert.Equal(t, models.EventMetricLog, list[1].Kind)

	empty, err := r.ListByUser(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachsync/coachsync/internal/client/client"
	"github.com/coachsync/coachsync/internal/client/models"
	"github.com/coachsync/coachsync/internal/client/offline"
	"github.com/coachsync/coachsync/internal/client/repositories/metadata"
	"github.com/coachsync/coachsync/internal/logging"
)

type recordedRequest struct {
	path    string
	bearer  string
	payload string
}

// recordingServer captures replay requests and answers with the configured
// status per path (default 201).
type recordingServer struct {
	*httptest.Server
	requests []recordedRequest
	statuses map[string]int
}

func newRecordingServer(t *testing.T) *recordingServer {
	t.Helper()
	rs := &recordingServer{statuses: map[string]int{}}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.requests = append(rs.requests, recordedRequest{
			path:    r.URL.Path,
			bearer:  r.Header.Get("Authorization"),
			payload: string(body),
		})
		status := rs.statuses[r.URL.Path]
		if status == 0 {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func setupStore(t *testing.T) (*offline.Store, *sql.DB) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return offline.NewStore(db, logging.NewNopLogger()), db
}

func setToken(t *testing.T, store *offline.Store, token string) {
	t.Helper()
	require.NoError(t, store.Metadata().Set(context.Background(), metadata.KeyAccessToken, []byte(token)))
}

func queueLen(t *testing.T, store *offline.Store) int {
	t.Helper()
	queued, err := store.Queue(context.Background())
	require.NoError(t, err)
	return len(queued)
}

func TestSync_EmptyQueue(t *testing.T) {
	srv := newRecordingServer(t)
	store, _ := setupStore(t)
	setToken(t, store, "tok")

	m := NewManager(store, srv.URL, logging.NewNopLogger())
	result, err := m.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{}, result)
	assert.Empty(t, srv.requests, "empty queue must not touch the network")
}

func TestSync_NoToken(t *testing.T) {
	srv := newRecordingServer(t)
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionLog, []byte(`{"n":1}`)))
	require.NoError(t, store.Enqueue(ctx, models.MetricActionLog, []byte(`{"n":2}`)))

	m := NewManager(store, srv.URL, logging.NewNopLogger())
	result, err := m.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Failed: 2}, result)
	assert.Empty(t, srv.requests, "missing token must not touch the network")
	assert.Equal(t, 2, queueLen(t, store), "queue stays intact for a later attempt")
}

func TestSync_ReplaysInInsertionOrder(t *testing.T) {
	srv := newRecordingServer(t)
	store, _ := setupStore(t)
	ctx := context.Background()
	setToken(t, store, "tok-123")

	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionLog, []byte(`{"n":1}`)))
	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionComplete, []byte(`{"n":2}`)))
	require.NoError(t, store.Enqueue(ctx, models.MetricActionLog, []byte(`{"n":3}`)))

	m := NewManager(store, srv.URL, logging.NewNopLogger())
	result, err := m.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Synced: 3}, result)
	require.Len(t, srv.requests, 3)

	assert.Equal(t, "/api/workouts/log", srv.requests[0].path)
	assert.Equal(t, "/api/workouts/complete", srv.requests[1].path)
	assert.Equal(t, "/api/metrics/log", srv.requests[2].path)

	for i, req := range srv.requests {
		assert.Equal(t, "Bearer tok-123", req.bearer)
		var body struct {
			N int `json:"n"`
		}
		require.NoError(t, json.Unmarshal([]byte(req.payload), &body))
		assert.Equal(t, i+1, body.N, "payloads must replay in insertion order")
	}

	assert.Equal(t, 0, queueLen(t, store), "fully synced queue is cleared")
}

func TestSync_UnknownActionFailsWithoutRequest(t *testing.T) {
	srv := newRecordingServer(t)
	store, _ := setupStore(t)
	ctx := context.Background()
	setToken(t, store, "tok")

	require.NoError(t, store.Enqueue(ctx, "admin/drop-tables", []byte(`{}`)))
	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionLog, []byte(`{}`)))

	m := NewManager(store, srv.URL, logging.NewNopLogger())
	result, err := m.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Synced: 1, Failed: 1}, result)
	require.Len(t, srv.requests, 1, "unregistered actions must never be sent")
	assert.Equal(t, "/api/workouts/log", srv.requests[0].path)
}

// A failing entry is counted and skipped; later entries still replay, and
// any success clears the queue.
func TestSync_PartialFailureClearsQueue(t *testing.T) {
	srv := newRecordingServer(t)
	srv.statuses["/api/workouts/log"] = http.StatusInternalServerError
	store, _ := setupStore(t)
	ctx := context.Background()
	setToken(t, store, "tok")

	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionLog, []byte(`{"n":1}`)))
	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionComplete, []byte(`{"n":2}`)))

	m := NewManager(store, srv.URL, logging.NewNopLogger())
	result, err := m.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Synced: 1, Failed: 1}, result)
	require.Len(t, srv.requests, 2, "failure must not abort the pass")
	assert.Equal(t, 0, queueLen(t, store), "any success clears the queue")
}

func TestSync_AllFailedKeepsQueue(t *testing.T) {
	srv := newRecordingServer(t)
	srv.statuses["/api/workouts/log"] = http.StatusBadGateway
	srv.statuses["/api/metrics/log"] = http.StatusUnauthorized
	store, _ := setupStore(t)
	ctx := context.Background()
	setToken(t, store, "tok")

	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionLog, []byte(`{}`)))
	require.NoError(t, store.Enqueue(ctx, models.MetricActionLog, []byte(`{}`)))

	m := NewManager(store, srv.URL, logging.NewNopLogger())
	result, err := m.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Failed: 2}, result)
	assert.Equal(t, 2, queueLen(t, store), "zero successes leave the queue untouched")
}

func TestSync_TransportErrorCountsAsFailed(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	setToken(t, store, "tok")

	require.NoError(t, store.Enqueue(ctx, models.WorkoutActionLog, []byte(`{}`)))

	// no server listening on this address
	m := NewManager(store, "http://127.0.0.1:1", logging.NewNopLogger())
	result, err := m.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Failed: 1}, result)
	assert.Equal(t, 1, queueLen(t, store))
}

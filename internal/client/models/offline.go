// Package models defines client-side data models used by the coachsync CLI.
package models

import (
	"encoding/json"
	"time"
)

// CachedExercise is a locally mirrored exercise-library entry. Data holds
// the server payload verbatim; CachedAt records when it was mirrored.
// Re-caching the same id is last-write-wins.
type CachedExercise struct {
	ID       string
	Data     json.RawMessage
	CachedAt time.Time
}

// Replay actions understood by the server. The action doubles as the
// API path suffix: POST /api/<action>.
const (
	WorkoutActionLog      = "workouts/log"
	WorkoutActionComplete = "workouts/complete"
	WorkoutActionSkip     = "workouts/skip"
	MetricActionLog       = "metrics/log"
)

// QueuedMutation is a deferred write recorded while offline. ID is assigned
// by the local store and strictly increases in insertion order; replay must
// preserve that order.
type QueuedMutation struct {
	ID        int64
	Action    string
	Payload   json.RawMessage
	CreatedAt time.Time
}

package models

import (
	"encoding/json"
	"time"
)

// Exercise is a read-mostly library entry that clients mirror locally.
type Exercise struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	MuscleGroup string          `json:"muscleGroup"`
	Equipment   string          `json:"equipment,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// WorkoutEventKind names a workout mutation accepted over the API.
// The same identifiers are used as replay actions by offline clients.
type WorkoutEventKind string

const (
	EventWorkoutLog      WorkoutEventKind = "workouts/log"
	EventWorkoutComplete WorkoutEventKind = "workouts/complete"
	EventWorkoutSkip     WorkoutEventKind = "workouts/skip"
	EventMetricLog       WorkoutEventKind = "metrics/log"
)

// WorkoutEvent is a persisted workout mutation; the payload is stored
// verbatim as submitted by the client.
type WorkoutEvent struct {
	ID        string
	UserID    string
	Kind      WorkoutEventKind
	Payload   json.RawMessage
	CreatedAt time.Time
}

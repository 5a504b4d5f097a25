// Package queue provides the durable FIFO queue of pending write
// operations recorded while offline.
package queue

import (
	"context"
	"encoding/json"

	"github.com/coachsync/coachsync/internal/client/models"
)

// Repository is an append-only queue; existing entries are never
// overwritten. GetAll returns entries in insertion order so dependent
// writes replay in the sequence the user issued them.
type Repository interface {
	Append(ctx context.Context, action string, payload json.RawMessage) (int64, error)
	GetAll(ctx context.Context) ([]models.QueuedMutation, error)
	Clear(ctx context.Context) error
}

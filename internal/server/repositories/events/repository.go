// Package events provides persistence for workout mutations submitted over
// the API, including replayed offline queues.
package events

import (
	"context"

	"github.com/coachsync/coachsync/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, event *models.WorkoutEvent) error
	ListByUser(ctx context.Context, userID string) ([]models.WorkoutEvent, error)
}

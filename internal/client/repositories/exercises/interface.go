// Package exercises provides the local mirror of the exercise library.
package exercises

import (
	"context"
	"encoding/json"

	"github.com/coachsync/coachsync/internal/client/models"
)

// Repository stores cached exercise entries keyed by their canonical id.
// Re-caching an id is last-write-wins; there is no versioning or conflict
// detection.
type Repository interface {
	Upsert(ctx context.Context, e *models.CachedExercise) error
	GetAllData(ctx context.Context) ([]json.RawMessage, error)
	Clear(ctx context.Context) error
}

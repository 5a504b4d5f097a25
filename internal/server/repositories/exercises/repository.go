// Package exercises provides persistence for the exercise library that
// offline clients mirror locally.
package exercises

import (
	"context"

	"github.com/coachsync/coachsync/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, exercise *models.Exercise) error
	List(ctx context.Context) ([]models.Exercise, error)
}

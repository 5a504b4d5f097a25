// Package users provides persistence for account rows.
package users

import (
	"context"

	"github.com/coachsync/coachsync/internal/server/models"
)

// Repository abstracts user storage. Lookups return common.ErrorNotFound
// when no row exists; soft-deleted rows are still returned so callers can
// decide how account state maps to their error taxonomy.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

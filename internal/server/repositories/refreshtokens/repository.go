// Package refreshtokens provides a PostgreSQL-backed repository for the
// refresh sessions used in the authentication flow.
package refreshtokens

import (
	"context"

	"github.com/coachsync/coachsync/internal/server/models"
)

// Repository manages refresh-session rows. Find returns
// common.ErrorNotFound for unknown token values.
type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

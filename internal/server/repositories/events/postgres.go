package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coachsync/coachsync/internal/dbx"
	"github.com/coachsync/coachsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, event *models.WorkoutEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	query := `
		INSERT INTO workout_events (id, user_id, kind, payload)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.UserID, string(event.Kind), []byte(event.Payload)); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// ListByUser returns a user's events in submission order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.WorkoutEvent, error) {
	query := `
		SELECT id, user_id, kind, payload, created_at
		FROM workout_events
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutEvent
	for rows.Next() {
		var item models.WorkoutEvent
		var kind string
		var payload []byte
		if err := rows.Scan(&item.ID, &item.UserID, &kind, &payload, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Kind = models.WorkoutEventKind(kind)
		item.Payload = payload
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

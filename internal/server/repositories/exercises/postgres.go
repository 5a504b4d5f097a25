package exercises

import (
	"context"
	"fmt"

	"github.com/coachsync/coachsync/internal/dbx"
	"github.com/coachsync/coachsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or replaces a library entry by id.
func (r *PostgresRepository) Upsert(ctx context.Context, e *models.Exercise) error {
	query := `
		INSERT INTO exercises (id, name, muscle_group, equipment, details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			muscle_group = excluded.muscle_group,
			equipment = excluded.equipment,
			details = excluded.details
	`
	if _, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.MuscleGroup, e.Equipment, []byte(e.Details)); err != nil {
		return fmt.Errorf("failed to upsert exercise: %w", err)
	}
	return nil
}

// List returns the whole library ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Exercise, error) {
	query := `SELECT id, name, muscle_group, equipment, details FROM exercises ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var item models.Exercise
		var details []byte
		if err := rows.Scan(&item.ID, &item.Name, &item.MuscleGroup, &item.Equipment, &details); err != nil {
			return nil, err
		}
		item.Details = details
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

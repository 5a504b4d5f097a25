package exercises

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coachsync/coachsync/internal/client/models"
	"github.com/coachsync/coachsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or replaces an entry by id.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.CachedExercise) error {
	query := `
		INSERT INTO exercises (id, data, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, cached_at = excluded.cached_at
	`
	_, err := r.db.ExecContext(ctx, query, e.ID, []byte(e.Data), e.CachedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert exercise: %w", err)
	}
	return nil
}

// GetAllData returns the cached payloads in storage-native order, with the
// cache metadata stripped.
func (r *SQLiteRepository) GetAllData(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM exercises`)
	if err != nil {
		return nil, fmt.Errorf("failed to select exercises: %w", err)
	}
	defer rows.Close()

	var result []json.RawMessage
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Clear removes every cached entry.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exercises`); err != nil {
		return fmt.Errorf("failed to clear exercises: %w", err)
	}
	return nil
}

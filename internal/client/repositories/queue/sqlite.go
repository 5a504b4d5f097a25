package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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

// Append records a new mutation with an auto-assigned id and the current
// timestamp.
func (r *SQLiteRepository) Append(ctx context.Context, action string, payload json.RawMessage) (int64, error) {
	query := `INSERT INTO mutation_queue (action, payload, created_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, action, []byte(payload), time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to append mutation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// GetAll lists queued mutations in insertion order.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.QueuedMutation, error) {
	query := `SELECT id, action, payload, created_at FROM mutation_queue ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select mutations: %w", err)
	}
	defer rows.Close()

	var result []models.QueuedMutation
	for rows.Next() {
		var item models.QueuedMutation
		var payload []byte
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.Action, &payload, &createdAt); err != nil {
			return nil, err
		}
		item.Payload = payload
		item.CreatedAt = time.UnixMilli(createdAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Clear removes all queued mutations unconditionally.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mutation_queue`); err != nil {
		return fmt.Errorf("failed to clear mutation queue: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kozaktomas/photo-cleanup/internal/database"
)

// CheckpointRepository provides PostgreSQL-backed checkpoint storage.
type CheckpointRepository struct {
	pool *Pool
}

// NewCheckpointRepository creates a new PostgreSQL checkpoint repository.
func NewCheckpointRepository(pool *Pool) *CheckpointRepository {
	return &CheckpointRepository{pool: pool}
}

// Save overwrites the checkpoint for a collection (last write wins).
func (r *CheckpointRepository) Save(ctx context.Context, collectionID string, groupIDs []string, index int) error {
	query := `
		INSERT INTO cleanup_checkpoints (collection_id, group_ids, photo_index, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection_id) DO UPDATE SET
			group_ids = EXCLUDED.group_ids,
			photo_index = EXCLUDED.photo_index,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, collectionID, pq.Array(groupIDs), index)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Get returns the checkpoint for a collection, or nil if none exists.
func (r *CheckpointRepository) Get(ctx context.Context, collectionID string) (*database.CheckpointRecord, error) {
	query := `
		SELECT collection_id, group_ids, photo_index, updated_at
		FROM cleanup_checkpoints
		WHERE collection_id = $1
	`

	var rec database.CheckpointRecord
	err := r.pool.QueryRow(ctx, query, collectionID).Scan(
		&rec.CollectionID,
		pq.Array(&rec.GroupIDs),
		&rec.Index,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	return &rec, nil
}

// Clear removes the checkpoint for a collection.
func (r *CheckpointRepository) Clear(ctx context.Context, collectionID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM cleanup_checkpoints WHERE collection_id = $1", collectionID)
	if err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}

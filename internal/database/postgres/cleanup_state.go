package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// CleanupStateRepository provides PostgreSQL-backed processed-group storage.
type CleanupStateRepository struct {
	pool *Pool
}

// NewCleanupStateRepository creates a new PostgreSQL cleanup state repository.
func NewCleanupStateRepository(pool *Pool) *CleanupStateRepository {
	return &CleanupStateRepository{pool: pool}
}

// MarkProcessed records the given groups as processed. Re-marking an
// already-recorded group is a no-op.
func (r *CleanupStateRepository) MarkProcessed(ctx context.Context, collectionID string, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO cleanup_processed_groups (collection_id, group_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (collection_id, group_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, collectionID, pq.Array(groupIDs))
	if err != nil {
		return fmt.Errorf("mark groups processed: %w", err)
	}
	return nil
}

// ProcessedGroupIDs returns all group IDs recorded for a collection.
func (r *CleanupStateRepository) ProcessedGroupIDs(ctx context.Context, collectionID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT group_id FROM cleanup_processed_groups WHERE collection_id = $1 ORDER BY group_id",
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query processed groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed group: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed groups: %w", err)
	}
	return ids, nil
}

// Reset removes all processed records for a collection.
func (r *CleanupStateRepository) Reset(ctx context.Context, collectionID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM cleanup_processed_groups WHERE collection_id = $1", collectionID)
	if err != nil {
		return fmt.Errorf("reset cleanup state: %w", err)
	}
	return nil
}

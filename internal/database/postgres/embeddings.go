package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/photo-cleanup/internal/database"
)

// EmbeddingRepository provides PostgreSQL-backed embedding storage using the
// pgvector extension.
type EmbeddingRepository struct {
	pool *Pool
}

// NewEmbeddingRepository creates a new PostgreSQL embedding repository.
func NewEmbeddingRepository(pool *Pool) *EmbeddingRepository {
	return &EmbeddingRepository{pool: pool}
}

// Get retrieves an embedding by photo UID, returns nil if not found.
func (r *EmbeddingRepository) Get(ctx context.Context, photoUID string) (*database.StoredEmbedding, error) {
	query := `
		SELECT photo_uid, embedding, model, dim, created_at
		FROM embeddings
		WHERE photo_uid = $1
	`

	var emb database.StoredEmbedding
	var vec pgvector.Vector

	err := r.pool.QueryRow(ctx, query, photoUID).Scan(
		&emb.PhotoUID,
		&vec,
		&emb.Model,
		&emb.Dim,
		&emb.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	emb.Embedding = vec.Slice()
	return &emb, nil
}

// List returns all stored embeddings whose photo UID is in the given set.
func (r *EmbeddingRepository) List(ctx context.Context, photoUIDs []string) ([]database.StoredEmbedding, error) {
	if len(photoUIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT photo_uid, embedding, model, dim, created_at
		FROM embeddings
		WHERE photo_uid = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(photoUIDs))
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var out []database.StoredEmbedding
	for rows.Next() {
		var emb database.StoredEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&emb.PhotoUID, &vec, &emb.Model, &emb.Dim, &emb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		emb.Embedding = vec.Slice()
		out = append(out, emb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return out, nil
}

// Upsert stores an embedding, replacing any existing one for the photo.
func (r *EmbeddingRepository) Upsert(ctx context.Context, emb database.StoredEmbedding) error {
	query := `
		INSERT INTO embeddings (photo_uid, embedding, model, dim, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (photo_uid) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			dim = EXCLUDED.dim,
			created_at = EXCLUDED.created_at
	`

	_, err := r.pool.Exec(ctx, query,
		emb.PhotoUID,
		pgvector.NewVector(emb.Embedding),
		emb.Model,
		len(emb.Embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

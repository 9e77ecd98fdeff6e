// Package database defines the storage interfaces the cleanup engine
// persists through, plus the record types they exchange. Concrete backends
// live in the postgres and memory subpackages; the engine itself never
// depends on a specific medium.
package database

import "context"

// CheckpointStore persists the mid-batch position per collection. The store
// is a dumb key/value layer: validation against the live catalog happens at
// read time in the session, not here. Writes may arrive at high frequency
// from a single writer and must not corrupt state; debouncing is the
// caller's concern.
type CheckpointStore interface {
	// Save overwrites the checkpoint for a collection (last write wins).
	Save(ctx context.Context, collectionID string, groupIDs []string, index int) error

	// Get returns the checkpoint for a collection, or nil if none exists.
	Get(ctx context.Context, collectionID string) (*CheckpointRecord, error)

	// Clear removes the checkpoint. Clearing a missing checkpoint is not an error.
	Clear(ctx context.Context, collectionID string) error
}

// CleanupStateStore persists which groups of a collection have been
// processed, so an exited session resumes exactly where it left off.
type CleanupStateStore interface {
	// MarkProcessed records the given groups as processed. Re-marking a
	// group is not an error.
	MarkProcessed(ctx context.Context, collectionID string, groupIDs []string) error

	// ProcessedGroupIDs returns all group IDs recorded for a collection.
	ProcessedGroupIDs(ctx context.Context, collectionID string) ([]string, error)

	// Reset removes all processed records for a collection.
	Reset(ctx context.Context, collectionID string) error
}

// EmbeddingReader provides read access to stored image embeddings for the
// embedding-based analyzer.
type EmbeddingReader interface {
	// Get returns the embedding for a photo, or nil if none is stored.
	Get(ctx context.Context, photoUID string) (*StoredEmbedding, error)

	// List returns all embeddings whose photo UID is in the given set.
	// UIDs without a stored embedding are skipped silently.
	List(ctx context.Context, photoUIDs []string) ([]StoredEmbedding, error)
}

// EmbeddingWriter persists image embeddings.
type EmbeddingWriter interface {
	// Upsert stores an embedding, replacing any existing one for the photo.
	Upsert(ctx context.Context, emb StoredEmbedding) error
}

// Package memory provides in-memory implementations of the database
// interfaces. They back unit tests and the CLI review loop, where spinning
// up PostgreSQL would be overkill; the engine keeps its resume guarantees
// for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/photo-cleanup/internal/database"
)

// CheckpointStore is an in-memory database.CheckpointStore.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]database.CheckpointRecord

	// Error injection for tests.
	SaveError  error
	GetError   error
	ClearError error
}

// NewCheckpointStore creates an empty in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{checkpoints: make(map[string]database.CheckpointRecord)}
}

// Save overwrites the checkpoint for a collection.
func (s *CheckpointStore) Save(ctx context.Context, collectionID string, groupIDs []string, index int) error {
	if s.SaveError != nil {
		return s.SaveError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(groupIDs))
	copy(ids, groupIDs)
	s.checkpoints[collectionID] = database.CheckpointRecord{
		CollectionID: collectionID,
		GroupIDs:     ids,
		Index:        index,
		UpdatedAt:    time.Now(),
	}
	return nil
}

// Get returns the checkpoint for a collection, or nil if none exists.
func (s *CheckpointStore) Get(ctx context.Context, collectionID string) (*database.CheckpointRecord, error) {
	if s.GetError != nil {
		return nil, s.GetError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.checkpoints[collectionID]
	if !ok {
		return nil, nil
	}
	out := rec
	out.GroupIDs = make([]string, len(rec.GroupIDs))
	copy(out.GroupIDs, rec.GroupIDs)
	return &out, nil
}

// Clear removes the checkpoint for a collection.
func (s *CheckpointStore) Clear(ctx context.Context, collectionID string) error {
	if s.ClearError != nil {
		return s.ClearError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, collectionID)
	return nil
}

// CleanupStateStore is an in-memory database.CleanupStateStore.
type CleanupStateStore struct {
	mu        sync.RWMutex
	processed map[string]map[string]bool // collectionID -> groupID set

	MarkError  error
	ListError  error
	ResetError error
}

// NewCleanupStateStore creates an empty in-memory cleanup state store.
func NewCleanupStateStore() *CleanupStateStore {
	return &CleanupStateStore{processed: make(map[string]map[string]bool)}
}

// MarkProcessed records groups as processed for a collection.
func (s *CleanupStateStore) MarkProcessed(ctx context.Context, collectionID string, groupIDs []string) error {
	if s.MarkError != nil {
		return s.MarkError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.processed[collectionID]
	if !ok {
		set = make(map[string]bool)
		s.processed[collectionID] = set
	}
	for _, id := range groupIDs {
		set[id] = true
	}
	return nil
}

// ProcessedGroupIDs returns the recorded group IDs for a collection, sorted
// for deterministic output.
func (s *CleanupStateStore) ProcessedGroupIDs(ctx context.Context, collectionID string) ([]string, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.processed[collectionID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Reset removes all processed records for a collection.
func (s *CleanupStateStore) Reset(ctx context.Context, collectionID string) error {
	if s.ResetError != nil {
		return s.ResetError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processed, collectionID)
	return nil
}

// EmbeddingStore is an in-memory embedding reader/writer.
type EmbeddingStore struct {
	mu         sync.RWMutex
	embeddings map[string]database.StoredEmbedding

	GetError    error
	ListError   error
	UpsertError error
}

// NewEmbeddingStore creates an empty in-memory embedding store.
func NewEmbeddingStore() *EmbeddingStore {
	return &EmbeddingStore{embeddings: make(map[string]database.StoredEmbedding)}
}

// Upsert stores an embedding, replacing any existing one for the photo.
func (s *EmbeddingStore) Upsert(ctx context.Context, emb database.StoredEmbedding) error {
	if s.UpsertError != nil {
		return s.UpsertError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[emb.PhotoUID] = emb
	return nil
}

// Get returns the embedding for a photo, or nil if none is stored.
func (s *EmbeddingStore) Get(ctx context.Context, photoUID string) (*database.StoredEmbedding, error) {
	if s.GetError != nil {
		return nil, s.GetError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	emb, ok := s.embeddings[photoUID]
	if !ok {
		return nil, nil
	}
	return &emb, nil
}

// List returns the stored embeddings for the given photo UIDs, skipping
// UIDs without one.
func (s *EmbeddingStore) List(ctx context.Context, photoUIDs []string) ([]database.StoredEmbedding, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []database.StoredEmbedding
	for _, uid := range photoUIDs {
		if emb, ok := s.embeddings[uid]; ok {
			out = append(out, emb)
		}
	}
	return out, nil
}

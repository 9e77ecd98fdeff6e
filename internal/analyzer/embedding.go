package analyzer

import (
	"context"
	"fmt"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
	"github.com/kozaktomas/photo-cleanup/internal/database"
)

// EmbeddingAnalyzer groups photos by CLIP embedding proximity. It requires
// embeddings to be precomputed and stored; photos without a stored embedding
// never join a group.
type EmbeddingAnalyzer struct {
	embeddings    database.EmbeddingReader
	threshold     float64 // max cosine distance for two photos to be duplicates
	neighborLimit int     // nearest neighbors fetched per photo
}

// NewEmbeddingAnalyzer creates an analyzer backed by stored embeddings.
// threshold is the maximum cosine distance (lower = more similar);
// neighborLimit caps how many neighbors each photo is compared against.
func NewEmbeddingAnalyzer(embeddings database.EmbeddingReader, threshold float64, neighborLimit int) *EmbeddingAnalyzer {
	if neighborLimit <= 0 {
		neighborLimit = 20
	}
	return &EmbeddingAnalyzer{
		embeddings:    embeddings,
		threshold:     threshold,
		neighborLimit: neighborLimit,
	}
}

// Analyze loads the collection's embeddings, builds an in-memory HNSW index
// over them, and unions each photo with its near neighbors. Loading and
// indexing are cheap next to the neighbor searches, so progress tracks the
// search loop.
func (a *EmbeddingAnalyzer) Analyze(ctx context.Context, collectionID string, photos []catalog.Photo, onProgress func(float64)) ([]catalog.Group, error) {
	progress := newProgressReporter(onProgress)

	uids := make([]string, len(photos))
	inCollection := make(map[string]bool, len(photos))
	for i, photo := range photos {
		uids[i] = photo.UID
		inCollection[photo.UID] = true
	}

	stored, err := a.embeddings.List(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings for collection %s: %w", collectionID, err)
	}
	progress.report(0.05)

	index := database.NewHNSWIndex(stored)
	progress.report(0.1)

	byUID := make(map[string][]float32, len(stored))
	for i := range stored {
		byUID[stored[i].PhotoUID] = stored[i].Embedding
	}

	uf := newUnionFind(uids)
	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis of collection %s cancelled: %w", collectionID, err)
		}

		embedding, ok := byUID[photo.UID]
		if !ok {
			progress.report(0.1 + 0.9*float64(i+1)/float64(len(photos)))
			continue
		}

		neighbors, distances, err := index.Search(embedding, a.neighborLimit)
		if err != nil {
			return nil, fmt.Errorf("neighbor search failed for photo %s: %w", photo.UID, err)
		}
		for j, neighbor := range neighbors {
			if neighbor == photo.UID || !inCollection[neighbor] {
				continue
			}
			if distances[j] <= a.threshold {
				uf.union(photo.UID, neighbor)
			}
		}
		progress.report(0.1 + 0.9*float64(i+1)/float64(len(photos)))
	}

	groups := groupsFromClusters(uf, photos)
	progress.report(1)
	return groups, nil
}

package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWMaxNeighbors is the M parameter of the HNSW graph. Higher values give
// better recall at the cost of memory and build time.
const HNSWMaxNeighbors = 16

// HNSWIndex wraps an in-memory HNSW graph over stored photo embeddings,
// keyed by photo UID. It turns the O(n) cosine scan into an approximate
// nearest neighbor lookup, which keeps analysis fast on large collections.
type HNSWIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	count int
}

// NewHNSWIndex builds an index from the given embeddings. Embeddings with
// empty vectors are skipped.
func NewHNSWIndex(embeddings []StoredEmbedding) *HNSWIndex {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // standard HNSW level factor
	g.Distance = hnsw.CosineDistance

	count := 0
	for i := range embeddings {
		emb := &embeddings[i]
		if len(emb.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(emb.PhotoUID, emb.Embedding))
		count++
	}

	return &HNSWIndex{graph: g, count: count}
}

// Count returns the number of indexed embeddings.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Search returns the photo UIDs of the k nearest neighbors to the query
// vector, nearest first, along with their cosine distances.
func (h *HNSWIndex) Search(query []float32, k int) ([]string, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}
	if len(query) == 0 {
		return nil, nil, fmt.Errorf("empty query vector")
	}

	neighbors := h.graph.Search(query, k)
	uids := make([]string, 0, len(neighbors))
	distances := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		uids = append(uids, n.Key)
		distances = append(distances, float64(hnsw.CosineDistance(query, n.Value)))
	}
	return uids, distances, nil
}

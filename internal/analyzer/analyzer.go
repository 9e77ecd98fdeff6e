// Package analyzer clusters a collection's photos into near-duplicate
// groups. Implementations differ in how they measure similarity (perceptual
// hashes, CLIP embeddings); the clustering itself is shared union-find.
package analyzer

import (
	"context"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
)

// Analyzer computes duplicate groups for a collection. Analyze blocks until
// done or the context is cancelled; onProgress (optional, may be nil) is
// called with values rising from 0 to 1 and is never called twice with a
// smaller value than before.
type Analyzer interface {
	Analyze(ctx context.Context, collectionID string, photos []catalog.Photo, onProgress func(float64)) ([]catalog.Group, error)
}

// progressReporter wraps an optional progress callback and enforces that
// reported values only move forward.
type progressReporter struct {
	fn   func(float64)
	last float64
}

func newProgressReporter(fn func(float64)) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) report(v float64) {
	if p.fn == nil {
		return
	}
	if v > 1 {
		v = 1
	}
	if v <= p.last {
		return
	}
	p.last = v
	p.fn(v)
}

// groupsFromClusters turns union-find clusters of size >= 2 into catalog
// groups. Group order follows the first appearance of any member in the
// input photo order, and members keep that order too, so analysis output is
// deterministic for a given input.
func groupsFromClusters(uf *unionFind, photos []catalog.Photo) []catalog.Group {
	members := make(map[string][]string)
	var rootOrder []string
	for _, photo := range photos {
		root, ok := uf.findExisting(photo.UID)
		if !ok {
			continue
		}
		if _, seen := members[root]; !seen {
			rootOrder = append(rootOrder, root)
		}
		members[root] = append(members[root], photo.UID)
	}

	var groups []catalog.Group
	for _, root := range rootOrder {
		uids := members[root]
		if len(uids) < 2 {
			continue
		}
		groups = append(groups, catalog.Group{
			ID:        catalog.GroupID(uids),
			PhotoUIDs: uids,
		})
	}
	return groups
}

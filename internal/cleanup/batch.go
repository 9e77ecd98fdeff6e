// Package cleanup implements the duplicate-group cleanup session engine:
// bounded review batches over analyzed similarity groups, checkpointed
// mid-batch resume, speculative prefetch, and round-robin across
// collections. The Session is the only type callers talk to.
package cleanup

import (
	"github.com/kozaktomas/photo-cleanup/internal/catalog"
)

// Batch is the materialized unit of review: the photos of one or more whole
// groups, in catalog order, plus the group IDs needed to mark them processed
// afterwards. A group is never split across batches.
type Batch struct {
	CollectionID string          `json:"collection_id"`
	GroupIDs     []string        `json:"group_ids"`
	Photos       []catalog.Photo `json:"photos"`
}

// buildNextBatch walks the unprocessed groups in catalog order, greedily
// accumulating whole groups while the running photo count stays at or below
// imageCap. The cap is soft: a single group larger than the cap is still
// served alone, because at least one group per non-empty batch is a hard
// floor. Returns nil when no eligible group remains.
func buildNextBatch(cat *catalog.Catalog, collectionID string, byUID map[string]catalog.Photo, excludeGroupIDs []string, imageCap int) *Batch {
	excluded := make(map[string]bool, len(excludeGroupIDs))
	for _, id := range excludeGroupIDs {
		excluded[id] = true
	}

	var picked []catalog.Group
	count := 0
	for _, g := range cat.UnprocessedGroups(collectionID) {
		if excluded[g.ID] {
			continue
		}
		if count+g.Size() > imageCap {
			if len(picked) == 0 {
				picked = append(picked, g)
			}
			break
		}
		picked = append(picked, g)
		count += g.Size()
	}
	if len(picked) == 0 {
		return nil
	}

	batch := &Batch{CollectionID: collectionID}
	for _, g := range picked {
		batch.GroupIDs = append(batch.GroupIDs, g.ID)
		appendLivePhotos(batch, g, byUID)
	}
	return batch
}

// materializeBatch rebuilds a batch from explicit group IDs, used when
// resuming a persisted checkpoint. Groups missing from the catalog are
// skipped; the caller validates checkpoint staleness before materializing.
func materializeBatch(cat *catalog.Catalog, collectionID string, groupIDs []string, byUID map[string]catalog.Photo) *Batch {
	batch := &Batch{CollectionID: collectionID}
	for _, id := range groupIDs {
		g, ok := cat.Group(collectionID, id)
		if !ok {
			continue
		}
		batch.GroupIDs = append(batch.GroupIDs, g.ID)
		appendLivePhotos(batch, g, byUID)
	}
	return batch
}

// appendLivePhotos adds a group's photos to the batch, dropping UIDs missing
// from the live photo list. External deletions shrink what is displayed but
// never resize the group's bookkeeping.
func appendLivePhotos(batch *Batch, g catalog.Group, byUID map[string]catalog.Photo) {
	for _, uid := range g.PhotoUIDs {
		if photo, ok := byUID[uid]; ok {
			batch.Photos = append(batch.Photos, photo)
		}
	}
}

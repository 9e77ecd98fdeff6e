package catalog

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// Photo describes a single photo as seen by the cleanup engine.
// The engine never owns photo content; it references photos by UID and
// leaves fetching/decoding to the photo source that produced the record.
type Photo struct {
	UID           string    `json:"uid"`
	SourceRef     string    `json:"source_ref,omitempty"` // file path or remote file UID
	TakenAt       time.Time `json:"taken_at,omitempty"`
	CollectionKey string    `json:"collection_key,omitempty"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
}

// Group is a cluster of near-duplicate photos. It is the atomic unit of
// cleanup bookkeeping: a group is marked processed as a whole, never photo
// by photo.
type Group struct {
	ID        string   `json:"id"`
	PhotoUIDs []string `json:"photo_uids"`
}

// Size returns the number of photos in the group.
func (g Group) Size() int {
	return len(g.PhotoUIDs)
}

// GroupID derives a stable identifier from group membership. The digest is
// order-independent, so re-analyzing an unchanged collection reproduces the
// same IDs and previously persisted processed/checkpoint state stays valid.
func GroupID(photoUIDs []string) string {
	sorted := make([]string, len(photoUIDs))
	copy(sorted, photoUIDs)
	sort.Strings(sorted)

	h := fnv.New64a()
	for _, uid := range sorted {
		h.Write([]byte(uid))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("g-%016x", h.Sum64())
}

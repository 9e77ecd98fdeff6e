package database

import "time"

// CheckpointRecord is the persisted mid-batch position for one collection.
// At most one record exists per collection; writes are last-write-wins.
type CheckpointRecord struct {
	CollectionID string
	GroupIDs     []string // batch groups in display order
	Index        int      // position in the flattened photo sequence of the batch
	UpdatedAt    time.Time
}

// StoredEmbedding is an image embedding stored for a photo.
type StoredEmbedding struct {
	PhotoUID  string
	Embedding []float32
	Model     string
	Dim       int
	CreatedAt time.Time
}

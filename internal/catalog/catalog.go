// Package catalog keeps the in-memory index of similarity groups for each
// collection entered during a cleanup session, together with their
// processed/unprocessed status. The group order assigned at analysis time is
// the canonical processing order for the whole engine.
package catalog

import "sync"

// collectionState holds the groups and bookkeeping for one collection.
type collectionState struct {
	groups      []Group // analysis-time order, never reordered
	processed   map[string]bool
	totalImages int
}

// Catalog indexes similarity groups per collection. Multiple collections may
// be resident at once (the round-robin pool needs them); access is
// goroutine-safe because prefetch reads race with foreground calls.
type Catalog struct {
	mu          sync.RWMutex
	collections map[string]*collectionState
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{collections: make(map[string]*collectionState)}
}

// Create installs the grouping for a collection, replacing any prior state
// for the same ID. Called once per completed analysis; the engine commits
// analysis results atomically through this call.
func (c *Catalog) Create(collectionID string, groups []Group) {
	total := 0
	for _, g := range groups {
		total += g.Size()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections[collectionID] = &collectionState{
		groups:      groups,
		processed:   make(map[string]bool),
		totalImages: total,
	}
}

// Has reports whether a collection has a committed grouping.
func (c *Catalog) Has(collectionID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.collections[collectionID]
	return ok
}

// MarkProcessed flags the given groups as processed. Already-processed and
// unknown IDs are silently ignored, so the call is idempotent and safe to
// repeat after partial failures upstream.
func (c *Catalog) MarkProcessed(collectionID string, groupIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return
	}

	known := make(map[string]bool, len(state.groups))
	for _, g := range state.groups {
		known[g.ID] = true
	}
	for _, id := range groupIDs {
		if known[id] {
			state.processed[id] = true
		}
	}
}

// IsProcessed reports whether a group has been marked processed. Unknown
// collections and groups report false.
func (c *Catalog) IsProcessed(collectionID, groupID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return false
	}
	return state.processed[groupID]
}

// UnprocessedGroups returns the groups not yet processed, in analysis-time
// order. Returns nil for unknown collections.
func (c *Catalog) UnprocessedGroups(collectionID string) []Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return nil
	}

	var remaining []Group
	for _, g := range state.groups {
		if !state.processed[g.ID] {
			remaining = append(remaining, g)
		}
	}
	return remaining
}

// Group looks up a group by ID. Returns false for unknown collections or IDs.
func (c *Catalog) Group(collectionID, groupID string) (Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return Group{}, false
	}
	for _, g := range state.groups {
		if g.ID == groupID {
			return g, true
		}
	}
	return Group{}, false
}

// TotalGroups returns the number of groups found by the last analysis.
func (c *Catalog) TotalGroups(collectionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return 0
	}
	return len(state.groups)
}

// RemainingGroups returns the number of unprocessed groups.
func (c *Catalog) RemainingGroups(collectionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return 0
	}
	return len(state.groups) - len(state.processed)
}

// TotalImages returns the number of photos across all groups.
func (c *Catalog) TotalImages(collectionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return 0
	}
	return state.totalImages
}

// RemainingImages returns the photo count summed over unprocessed groups.
// The count is recomputed strictly from group membership; photos already
// displayed inside the in-progress batch are not subtracted.
func (c *Catalog) RemainingImages(collectionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.collections[collectionID]
	if !ok {
		return 0
	}

	count := 0
	for _, g := range state.groups {
		if !state.processed[g.ID] {
			count += g.Size()
		}
	}
	return count
}

// ResetProcessed clears all processed flags for a collection while keeping
// the grouping itself. No-op for unknown collections.
func (c *Catalog) ResetProcessed(collectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.collections[collectionID]; ok {
		state.processed = make(map[string]bool)
	}
}

// Delete drops a collection's grouping entirely, forcing re-analysis on the
// next entry.
func (c *Catalog) Delete(collectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.collections, collectionID)
}

// Clear drops all collections.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections = make(map[string]*collectionState)
}

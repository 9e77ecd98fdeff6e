package cleanup

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/kozaktomas/photo-cleanup/internal/analyzer"
	"github.com/kozaktomas/photo-cleanup/internal/catalog"
	"github.com/kozaktomas/photo-cleanup/internal/database"
)

// ErrSuperseded is returned when an analysis run was overtaken by a newer
// enter/reset/exit before its result could be committed. The caller retries
// by re-entering the collection if it still wants it.
var ErrSuperseded = errors.New("superseded by a newer request")

const (
	// DefaultBatchImageCap is the soft per-batch photo limit.
	DefaultBatchImageCap = 24

	// DefaultPrefetchThreshold is how few photos may remain in the displayed
	// batch before the next one should be prefetched.
	DefaultPrefetchThreshold = 3
)

// State is the per-collection phase of the cleanup state machine.
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateBrowsing
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateBrowsing:
		return "browsing"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Options tunes a cleanup session.
type Options struct {
	BatchImageCap     int // soft per-batch photo limit, default DefaultBatchImageCap
	PrefetchThreshold int // prefetch trigger, default DefaultPrefetchThreshold
}

// collectionRun tracks one collection's live state inside the session.
type collectionRun struct {
	state  State
	photos []catalog.Photo
	byUID  map[string]catalog.Photo
	cancel context.CancelFunc // in-flight analysis, nil when none
	dirty  bool               // set by reset, forces re-analysis on next enter
}

// Session drives cleanup review: one foreground collection at a time, a pool
// of entered collections for round-robin, a speculative next batch, and
// persisted processed/checkpoint state so review survives restarts.
//
// The session is constructed once by the composition root and handed to
// callers; it carries no global state. All methods are safe for use from the
// serving goroutine plus the session's own prefetch goroutines.
type Session struct {
	analyzer    analyzer.Analyzer
	checkpoints database.CheckpointStore
	states      database.CleanupStateStore

	imageCap          int
	prefetchThreshold int

	mu         sync.Mutex
	catalog    *catalog.Catalog
	runs       map[string]*collectionRun
	pool       map[string]bool
	active     string
	current    *Batch
	prefetched *Batch

	// generation invalidates stale async results: it bumps on every enter,
	// advance, reset and exit, and prefetch/analysis results are discarded
	// when the generation they were started under has moved on.
	generation uint64
}

// NewSession creates a cleanup session around the given analyzer and stores.
func NewSession(a analyzer.Analyzer, checkpoints database.CheckpointStore, states database.CleanupStateStore, opts Options) *Session {
	if opts.BatchImageCap <= 0 {
		opts.BatchImageCap = DefaultBatchImageCap
	}
	if opts.PrefetchThreshold <= 0 {
		opts.PrefetchThreshold = DefaultPrefetchThreshold
	}
	return &Session{
		analyzer:          a,
		checkpoints:       checkpoints,
		states:            states,
		imageCap:          opts.BatchImageCap,
		prefetchThreshold: opts.PrefetchThreshold,
		catalog:           catalog.New(),
		runs:              make(map[string]*collectionRun),
		pool:              make(map[string]bool),
	}
}

// EnterCollection makes a collection the foreground one, analyzing it first
// if no committed grouping exists (or a reset demanded re-analysis). It
// blocks until analysis finishes; onProgress (optional) receives monotonic
// values in [0,1]. On success it returns the batch to display and the photo
// index to resume at — a valid checkpoint resumes mid-batch, otherwise the
// first batch starts at index 0. A nil batch with nil error means the
// collection has no unprocessed groups left.
//
// Entering a collection cancels any in-flight analysis or prefetch tied to
// the previous foreground collection, and a second enter of the same
// collection cancels the first run rather than racing it.
func (s *Session) EnterCollection(ctx context.Context, collectionID string, photos []catalog.Photo, onProgress func(float64)) (*Batch, int, error) {
	s.mu.Lock()
	if s.active != "" && s.active != collectionID {
		if prev := s.runs[s.active]; prev != nil && prev.cancel != nil {
			prev.cancel()
			prev.cancel = nil
		}
	}
	run := s.ensureRunLocked(collectionID)
	if run.cancel != nil {
		run.cancel()
		run.cancel = nil
	}
	run.photos = photos
	run.byUID = indexPhotos(photos)
	s.pool[collectionID] = true
	s.active = collectionID
	s.prefetched = nil
	s.generation++
	gen := s.generation

	needsAnalysis := run.dirty || !s.catalog.Has(collectionID)
	var actx context.Context
	if needsAnalysis {
		run.state = StateAnalyzing
		actx, run.cancel = context.WithCancel(ctx)
	}
	s.mu.Unlock()

	if needsAnalysis {
		groups, err := s.analyzer.Analyze(actx, collectionID, photos, onProgress)

		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			return nil, 0, ErrSuperseded
		}
		run.cancel = nil
		if err != nil {
			run.state = StateIdle
			s.mu.Unlock()
			return nil, 0, fmt.Errorf("analysis of collection %s failed: %w", collectionID, err)
		}
		s.catalog.Create(collectionID, groups)
		run.dirty = false
		s.mu.Unlock()

		// Restore persisted processed state so an earlier exited session
		// resumes where it left off. Group IDs are membership digests, so
		// they match across re-analysis of an unchanged collection.
		processed, err := s.states.ProcessedGroupIDs(ctx, collectionID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load processed state for collection %s: %w", collectionID, err)
		}
		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			return nil, 0, ErrSuperseded
		}
		s.catalog.MarkProcessed(collectionID, processed)
		s.mu.Unlock()
	}

	batch, index, err := s.CheckpointBatch(ctx, collectionID)
	if err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, 0, ErrSuperseded
	}
	if batch != nil {
		run.state = StateBrowsing
		s.current = batch
		return batch, index, nil
	}

	next := buildNextBatch(s.catalog, collectionID, run.byUID, nil, s.imageCap)
	if next == nil {
		run.state = StateExhausted
		s.current = nil
		return nil, 0, nil
	}
	run.state = StateBrowsing
	s.current = next
	return next, 0, nil
}

// NextBatch returns the next batch for a collection without changing any
// state, or nil when none remains. Unknown or unanalyzed collections return
// nil rather than an error.
func (s *Session) NextBatch(collectionID string, excludeGroupIDs []string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[collectionID]
	if !ok {
		return nil
	}
	return buildNextBatch(s.catalog, collectionID, run.byUID, excludeGroupIDs, s.imageCap)
}

// CheckpointBatch re-resolves the persisted checkpoint against the live
// photo list. A checkpoint referencing a processed or unknown group is stale:
// it is discarded silently and (nil, 0, nil) is returned, never an error.
func (s *Session) CheckpointBatch(ctx context.Context, collectionID string) (*Batch, int, error) {
	rec, err := s.checkpoints.Get(ctx, collectionID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read checkpoint for collection %s: %w", collectionID, err)
	}
	if rec == nil || len(rec.GroupIDs) == 0 {
		return nil, 0, nil
	}

	s.mu.Lock()
	run, ok := s.runs[collectionID]
	s.mu.Unlock()
	if !ok {
		return nil, 0, nil
	}

	for _, id := range rec.GroupIDs {
		if _, exists := s.catalog.Group(collectionID, id); !exists || s.catalog.IsProcessed(collectionID, id) {
			// Best effort: a stale checkpoint is useless either way.
			_ = s.checkpoints.Clear(ctx, collectionID)
			return nil, 0, nil
		}
	}

	batch := materializeBatch(s.catalog, collectionID, rec.GroupIDs, run.byUID)
	index := rec.Index
	if index < 0 || index >= len(batch.Photos) {
		index = 0
	}
	return batch, index, nil
}

// SaveCheckpoint persists the mid-batch position, overwriting any previous
// checkpoint for the collection. Callers debounce; the store just has to
// survive rapid sequential writes.
func (s *Session) SaveCheckpoint(ctx context.Context, collectionID string, groupIDs []string, index int) error {
	if err := s.checkpoints.Save(ctx, collectionID, groupIDs, index); err != nil {
		return fmt.Errorf("failed to save checkpoint for collection %s: %w", collectionID, err)
	}
	return nil
}

// ClearCheckpoint removes the persisted checkpoint for a collection.
func (s *Session) ClearCheckpoint(ctx context.Context, collectionID string) error {
	if err := s.checkpoints.Clear(ctx, collectionID); err != nil {
		return fmt.Errorf("failed to clear checkpoint for collection %s: %w", collectionID, err)
	}
	return nil
}

// MarkGroupsProcessed marks whole groups as processed, in memory and in the
// persisted state store. IDs already processed or unknown are ignored; a
// checkpoint referencing any of the groups is invalidated. Calling this for
// an unanalyzed collection is a no-op.
func (s *Session) MarkGroupsProcessed(ctx context.Context, collectionID string, groupIDs []string) error {
	s.mu.Lock()
	if !s.catalog.Has(collectionID) {
		s.mu.Unlock()
		return nil
	}
	known := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		if _, ok := s.catalog.Group(collectionID, id); ok {
			known = append(known, id)
		}
	}
	s.catalog.MarkProcessed(collectionID, known)
	s.mu.Unlock()

	if len(known) == 0 {
		return nil
	}
	if err := s.states.MarkProcessed(ctx, collectionID, known); err != nil {
		return fmt.Errorf("failed to persist processed groups for collection %s: %w", collectionID, err)
	}

	rec, err := s.checkpoints.Get(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint for collection %s: %w", collectionID, err)
	}
	if rec != nil && intersects(rec.GroupIDs, known) {
		if err := s.checkpoints.Clear(ctx, collectionID); err != nil {
			return fmt.Errorf("failed to clear checkpoint for collection %s: %w", collectionID, err)
		}
	}
	return nil
}

// AdvanceBatch finishes the displayed batch: its groups are marked processed
// and its checkpoint cleared, then the next batch is served — a prefetched
// one if still valid, otherwise computed synchronously. When the foreground
// collection is exhausted, one of the already-analyzed, not-yet-exhausted
// pool collections is picked uniformly at random and entered. (nil, nil)
// means the whole session is exhausted; calling without a displayed batch is
// a no-op.
func (s *Session) AdvanceBatch(ctx context.Context) (*Batch, error) {
	s.mu.Lock()
	cur := s.current
	collectionID := s.active
	s.mu.Unlock()
	if cur == nil || collectionID == "" {
		return nil, nil
	}

	if err := s.MarkGroupsProcessed(ctx, collectionID, cur.GroupIDs); err != nil {
		return nil, err
	}
	if err := s.ClearCheckpoint(ctx, collectionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.generation++ // prefetches keyed to the finished batch are now stale

	if p := s.prefetched; p != nil && p.CollectionID == collectionID && s.allUnprocessedLocked(collectionID, p.GroupIDs) {
		s.prefetched = nil
		s.current = p
		s.mu.Unlock()
		return p, nil
	}
	s.prefetched = nil

	run := s.runs[collectionID]
	if run != nil {
		if next := buildNextBatch(s.catalog, collectionID, run.byUID, nil, s.imageCap); next != nil {
			run.state = StateBrowsing
			s.current = next
			s.mu.Unlock()
			return next, nil
		}
		run.state = StateExhausted
	}
	s.current = nil

	candidates := s.roundRobinCandidatesLocked(collectionID)
	if len(candidates) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	pick := candidates[rand.Intn(len(candidates))]
	photos := s.runs[pick].photos
	s.mu.Unlock()

	batch, _, err := s.EnterCollection(ctx, pick, photos, nil)
	return batch, err
}

// Prefetch speculatively computes the batch after the displayed one, holding
// it only in memory. The result is discarded if the session moved on (enter,
// advance, reset or exit) before it landed.
func (s *Session) Prefetch() {
	s.mu.Lock()
	if s.current == nil || s.active == "" {
		s.mu.Unlock()
		return
	}
	collectionID := s.active
	exclude := append([]string(nil), s.current.GroupIDs...)
	gen := s.generation
	s.mu.Unlock()

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen || s.active != collectionID {
			return
		}
		run, ok := s.runs[collectionID]
		if !ok {
			return
		}
		s.prefetched = buildNextBatch(s.catalog, collectionID, run.byUID, exclude, s.imageCap)
	}()
}

// ShouldPrefetch reports whether few enough photos remain in the displayed
// batch that the next one should be prefetched.
func (s *Session) ShouldPrefetch(remainingInBatch int) bool {
	return remainingInBatch <= s.prefetchThreshold
}

// ResetCollectionState clears all processed flags and the checkpoint for a
// collection and forces re-analysis on the next enter. The last analysis's
// grouping stays visible to the counters until then.
func (s *Session) ResetCollectionState(ctx context.Context, collectionID string) error {
	s.mu.Lock()
	s.generation++
	run := s.ensureRunLocked(collectionID)
	if run.cancel != nil {
		run.cancel()
		run.cancel = nil
	}
	run.state = StateIdle
	run.dirty = true
	if s.prefetched != nil && s.prefetched.CollectionID == collectionID {
		s.prefetched = nil
	}
	if s.current != nil && s.current.CollectionID == collectionID {
		s.current = nil
	}
	s.catalog.ResetProcessed(collectionID)
	s.mu.Unlock()

	if err := s.states.Reset(ctx, collectionID); err != nil {
		return fmt.Errorf("failed to reset processed state for collection %s: %w", collectionID, err)
	}
	if err := s.checkpoints.Clear(ctx, collectionID); err != nil {
		return fmt.Errorf("failed to clear checkpoint for collection %s: %w", collectionID, err)
	}
	return nil
}

// ExitCleanupMode tears down the in-memory session: in-flight analyses are
// cancelled and catalogs, pool and batches dropped. Persisted processed and
// checkpoint state is untouched, so a later EnterCollection resumes exactly
// where review left off.
func (s *Session) ExitCleanupMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for _, run := range s.runs {
		if run.cancel != nil {
			run.cancel()
			run.cancel = nil
		}
	}
	s.runs = make(map[string]*collectionRun)
	s.pool = make(map[string]bool)
	s.catalog.Clear()
	s.active = ""
	s.current = nil
	s.prefetched = nil
}

// AddToPool registers collections as round-robin candidates. They only
// become eligible picks once analyzed through EnterCollection.
func (s *Session) AddToPool(collectionIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range collectionIDs {
		s.ensureRunLocked(id)
		s.pool[id] = true
	}
}

// Active returns the foreground collection ID, or "" when none is entered.
func (s *Session) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CurrentBatch returns the displayed batch, or nil.
func (s *Session) CurrentBatch() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CollectionState returns the state machine phase for a collection. Unknown
// collections report StateIdle.
func (s *Session) CollectionState(collectionID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[collectionID]; ok {
		return run.state
	}
	return StateIdle
}

// TotalGroups returns the group count from the collection's last analysis.
func (s *Session) TotalGroups(collectionID string) int {
	return s.catalog.TotalGroups(collectionID)
}

// RemainingGroups returns the unprocessed group count.
func (s *Session) RemainingGroups(collectionID string) int {
	return s.catalog.RemainingGroups(collectionID)
}

// TotalImages returns the photo count across all groups.
func (s *Session) TotalImages(collectionID string) int {
	return s.catalog.TotalImages(collectionID)
}

// RemainingImages returns the photo count across unprocessed groups.
func (s *Session) RemainingImages(collectionID string) int {
	return s.catalog.RemainingImages(collectionID)
}

func (s *Session) ensureRunLocked(collectionID string) *collectionRun {
	run, ok := s.runs[collectionID]
	if !ok {
		run = &collectionRun{state: StateIdle}
		s.runs[collectionID] = run
	}
	return run
}

// roundRobinCandidatesLocked returns the pool members eligible for a random
// pick: analyzed, with unprocessed groups left, and not the collection that
// just ran dry. Sorted so the pick is uniform over a stable slice.
func (s *Session) roundRobinCandidatesLocked(exclude string) []string {
	var candidates []string
	for id := range s.pool {
		if id == exclude {
			continue
		}
		if !s.catalog.Has(id) {
			continue
		}
		if s.catalog.RemainingGroups(id) == 0 {
			continue
		}
		if run := s.runs[id]; run != nil && run.dirty {
			continue
		}
		candidates = append(candidates, id)
	}
	sort.Strings(candidates)
	return candidates
}

func (s *Session) allUnprocessedLocked(collectionID string, groupIDs []string) bool {
	for _, id := range groupIDs {
		if _, ok := s.catalog.Group(collectionID, id); !ok || s.catalog.IsProcessed(collectionID, id) {
			return false
		}
	}
	return len(groupIDs) > 0
}

func indexPhotos(photos []catalog.Photo) map[string]catalog.Photo {
	byUID := make(map[string]catalog.Photo, len(photos))
	for _, p := range photos {
		byUID[p.UID] = p
	}
	return byUID
}

func intersects(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if set[id] {
			return true
		}
	}
	return false
}

package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
	"github.com/kozaktomas/photo-cleanup/internal/database/memory"
)

// fakeAnalyzer returns canned groupings per collection, counts invocations,
// and can optionally block one collection until released so cancellation can
// be tested.
type fakeAnalyzer struct {
	mu     sync.Mutex
	groups map[string][]catalog.Group
	err    error
	calls  int

	blockOn string        // collection whose analysis blocks, if set
	started chan struct{} // closed when the blocked analysis begins
	release chan struct{} // unblocks the blocked analysis
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, collectionID string, photos []catalog.Photo, onProgress func(float64)) ([]catalog.Group, error) {
	f.mu.Lock()
	f.calls++
	blocked := f.blockOn != "" && f.blockOn == collectionID
	started := f.started
	release := f.release
	err := f.err
	groups := f.groups[collectionID]
	f.mu.Unlock()

	if blocked {
		if started != nil {
			close(started)
			f.mu.Lock()
			f.started = nil
			f.mu.Unlock()
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(1)
	}
	return groups, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAnalyzer) recover(groups map[string][]catalog.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
	if groups != nil {
		f.groups = groups
	}
}

func makeGroup(uids ...string) catalog.Group {
	return catalog.Group{ID: catalog.GroupID(uids), PhotoUIDs: uids}
}

func makePhotos(uids ...string) []catalog.Photo {
	photos := make([]catalog.Photo, len(uids))
	for i, uid := range uids {
		photos[i] = catalog.Photo{UID: uid}
	}
	return photos
}

// tripSetup builds the recurring scenario: collection "trip" with 10 photos
// in 3 groups of sizes [4,3,3] and a batch cap of 5.
func tripSetup(t *testing.T) (*Session, []catalog.Group, []catalog.Photo) {
	t.Helper()
	g1 := makeGroup("p1", "p2", "p3", "p4")
	g2 := makeGroup("p5", "p6", "p7")
	g3 := makeGroup("p8", "p9", "p10")
	groups := []catalog.Group{g1, g2, g3}
	photos := makePhotos("p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9", "p10")

	fa := &fakeAnalyzer{groups: map[string][]catalog.Group{"trip": groups}}
	s := NewSession(fa, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{BatchImageCap: 5})
	return s, groups, photos
}

func TestEnterCollectionServesFirstBatch(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	var progress []float64
	batch, index, err := s.EnterCollection(ctx, "trip", photos, func(v float64) { progress = append(progress, v) })
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if batch == nil {
		t.Fatal("expected a first batch")
	}
	if index != 0 {
		t.Errorf("index = %d, want 0", index)
	}
	// Group 1 alone: adding group 2's 3 photos would exceed the cap of 5.
	if len(batch.GroupIDs) != 1 || batch.GroupIDs[0] != groups[0].ID {
		t.Errorf("first batch groups = %v, want [%s]", batch.GroupIDs, groups[0].ID)
	}
	if len(batch.Photos) != 4 {
		t.Errorf("first batch photo count = %d, want 4", len(batch.Photos))
	}
	if len(progress) == 0 || progress[len(progress)-1] != 1 {
		t.Errorf("progress = %v, want terminal 1", progress)
	}
	if got := s.CollectionState("trip"); got != StateBrowsing {
		t.Errorf("state = %s, want browsing", got)
	}
}

func TestBatchDrainCoversEveryGroupOnce(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}

	wantSizes := []int{4, 3, 3}
	wantRemainingImages := []int{6, 3, 0}
	seen := make(map[string]int)

	for step := 0; ; step++ {
		batch := s.NextBatch("trip", nil)
		if batch == nil {
			break
		}
		if step >= len(wantSizes) {
			t.Fatalf("more batches than expected, step %d: %v", step, batch.GroupIDs)
		}
		if len(batch.Photos) != wantSizes[step] {
			t.Errorf("batch %d photo count = %d, want %d", step, len(batch.Photos), wantSizes[step])
		}
		for _, id := range batch.GroupIDs {
			seen[id]++
		}
		if err := s.MarkGroupsProcessed(ctx, "trip", batch.GroupIDs); err != nil {
			t.Fatalf("MarkGroupsProcessed failed: %v", err)
		}
		if got := s.RemainingImages("trip"); got != wantRemainingImages[step] {
			t.Errorf("remaining images after batch %d = %d, want %d", step, got, wantRemainingImages[step])
		}
	}

	if len(seen) != len(groups) {
		t.Fatalf("drained %d groups, want %d", len(seen), len(groups))
	}
	for _, g := range groups {
		if seen[g.ID] != 1 {
			t.Errorf("group %s served %d times, want exactly once", g.ID, seen[g.ID])
		}
	}
	if got := s.RemainingGroups("trip"); got != 0 {
		t.Errorf("remaining groups = %d, want 0", got)
	}
}

func TestBatchNeverSplitsGroup(t *testing.T) {
	// One oversized group: the cap is soft, the group is served whole.
	big := makeGroup("p1", "p2", "p3", "p4", "p5", "p6", "p7")
	fa := &fakeAnalyzer{groups: map[string][]catalog.Group{"trip": {big}}}
	s := NewSession(fa, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{BatchImageCap: 5})

	batch, _, err := s.EnterCollection(context.Background(), "trip", makePhotos("p1", "p2", "p3", "p4", "p5", "p6", "p7"), nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if batch == nil || len(batch.Photos) != 7 {
		t.Fatalf("oversized group must be served whole, got %v", batch)
	}
}

func TestBatchExcludesGroups(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}

	batch := s.NextBatch("trip", []string{groups[0].ID})
	if batch == nil {
		t.Fatal("expected a batch past the excluded group")
	}
	if len(batch.GroupIDs) != 1 || batch.GroupIDs[0] != groups[1].ID {
		t.Errorf("batch groups = %v, want [%s]", batch.GroupIDs, groups[1].ID)
	}
}

func TestBatchFiltersMissingPhotos(t *testing.T) {
	s, groups, _ := tripSetup(t)
	ctx := context.Background()

	// p3 was deleted externally between analysis and display.
	live := makePhotos("p1", "p2", "p4", "p5", "p6", "p7", "p8", "p9", "p10")
	batch, _, err := s.EnterCollection(ctx, "trip", live, nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if batch == nil {
		t.Fatal("expected a batch")
	}
	if len(batch.Photos) != 3 {
		t.Errorf("batch photo count = %d, want 3 after filtering the missing photo", len(batch.Photos))
	}
	// The group's bookkeeping is untouched by the missing photo.
	if got := s.TotalImages("trip"); got != 10 {
		t.Errorf("total images = %d, want 10", got)
	}
	if len(batch.GroupIDs) != 1 || batch.GroupIDs[0] != groups[0].ID {
		t.Errorf("batch groups = %v, want [%s]", batch.GroupIDs, groups[0].ID)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	batch, _, err := s.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if err := s.SaveCheckpoint(ctx, "trip", batch.GroupIDs, 2); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	resumed, index, err := s.CheckpointBatch(ctx, "trip")
	if err != nil {
		t.Fatalf("CheckpointBatch failed: %v", err)
	}
	if resumed == nil {
		t.Fatal("expected a checkpoint batch")
	}
	if index != 2 {
		t.Errorf("index = %d, want 2", index)
	}
	if len(resumed.GroupIDs) != 1 || resumed.GroupIDs[0] != groups[0].ID {
		t.Errorf("resumed groups = %v, want [%s]", resumed.GroupIDs, groups[0].ID)
	}
	if len(resumed.Photos) != 4 {
		t.Errorf("resumed photo count = %d, want 4", len(resumed.Photos))
	}
}

func TestCheckpointStaleAfterProcessing(t *testing.T) {
	s, _, photos := tripSetup(t)
	ctx := context.Background()

	batch, _, err := s.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if err := s.SaveCheckpoint(ctx, "trip", batch.GroupIDs, 1); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	if err := s.MarkGroupsProcessed(ctx, "trip", batch.GroupIDs); err != nil {
		t.Fatalf("MarkGroupsProcessed failed: %v", err)
	}

	resumed, _, err := s.CheckpointBatch(ctx, "trip")
	if err != nil {
		t.Fatalf("stale checkpoint must not error: %v", err)
	}
	if resumed != nil {
		t.Errorf("stale checkpoint must be discarded, got %v", resumed.GroupIDs)
	}
}

func TestResumeAcrossRestart(t *testing.T) {
	checkpoints := memory.NewCheckpointStore()
	states := memory.NewCleanupStateStore()
	groups := map[string][]catalog.Group{"trip": {
		makeGroup("p1", "p2", "p3", "p4"),
		makeGroup("p5", "p6", "p7"),
	}}
	photos := makePhotos("p1", "p2", "p3", "p4", "p5", "p6", "p7")
	ctx := context.Background()

	first := NewSession(&fakeAnalyzer{groups: groups}, checkpoints, states, Options{BatchImageCap: 5})
	batch, _, err := first.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if err := first.SaveCheckpoint(ctx, "trip", batch.GroupIDs, 2); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	// Process restarts: a fresh session over the same persisted stores.
	second := NewSession(&fakeAnalyzer{groups: groups}, checkpoints, states, Options{BatchImageCap: 5})
	resumed, index, err := second.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection after restart failed: %v", err)
	}
	if resumed == nil {
		t.Fatal("expected to resume the checkpointed batch")
	}
	if index != 2 {
		t.Errorf("resume index = %d, want 2", index)
	}
	if len(resumed.Photos) != 4 {
		t.Errorf("resumed photo count = %d, want 4", len(resumed.Photos))
	}
}

func TestMarkGroupsProcessedIdempotent(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}

	ids := []string{groups[0].ID}
	if err := s.MarkGroupsProcessed(ctx, "trip", ids); err != nil {
		t.Fatalf("MarkGroupsProcessed failed: %v", err)
	}
	after := s.RemainingGroups("trip")
	if err := s.MarkGroupsProcessed(ctx, "trip", ids); err != nil {
		t.Fatalf("repeated MarkGroupsProcessed failed: %v", err)
	}
	if got := s.RemainingGroups("trip"); got != after {
		t.Errorf("remaining groups changed on repeat: %d then %d", after, got)
	}
	if after != 2 {
		t.Errorf("remaining groups = %d, want 2", after)
	}
}

func TestMarkGroupsProcessedIgnoresUnknown(t *testing.T) {
	s, _, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if err := s.MarkGroupsProcessed(ctx, "trip", []string{"g-does-not-exist"}); err != nil {
		t.Fatalf("unknown group IDs must be ignored, got error: %v", err)
	}
	if got := s.RemainingGroups("trip"); got != 3 {
		t.Errorf("remaining groups = %d, want 3", got)
	}
	// Unanalyzed collection: a silent no-op, not an error.
	if err := s.MarkGroupsProcessed(ctx, "never-entered", []string{"g1"}); err != nil {
		t.Fatalf("unanalyzed collection must be a no-op, got error: %v", err)
	}
}

func TestResetCollectionState(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()
	fa := s.analyzer.(*fakeAnalyzer)

	batch, _, err := s.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if err := s.SaveCheckpoint(ctx, "trip", batch.GroupIDs, 1); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	if err := s.MarkGroupsProcessed(ctx, "trip", []string{groups[0].ID, groups[1].ID}); err != nil {
		t.Fatalf("MarkGroupsProcessed failed: %v", err)
	}

	if err := s.ResetCollectionState(ctx, "trip"); err != nil {
		t.Fatalf("ResetCollectionState failed: %v", err)
	}

	if got, want := s.RemainingGroups("trip"), s.TotalGroups("trip"); got != want {
		t.Errorf("remaining groups after reset = %d, want total %d", got, want)
	}
	if resumed, _, err := s.CheckpointBatch(ctx, "trip"); err != nil || resumed != nil {
		t.Errorf("checkpoint after reset = (%v, %v), want none", resumed, err)
	}

	// Re-entering must re-run analysis.
	callsBefore := fa.callCount()
	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection after reset failed: %v", err)
	}
	if got := fa.callCount(); got != callsBefore+1 {
		t.Errorf("analyzer calls = %d, want %d (re-analysis forced)", got, callsBefore+1)
	}
	if got := s.RemainingGroups("trip"); got != 3 {
		t.Errorf("remaining groups after re-analysis = %d, want 3", got)
	}
}

func TestExitKeepsPersistedState(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if err := s.MarkGroupsProcessed(ctx, "trip", []string{groups[0].ID}); err != nil {
		t.Fatalf("MarkGroupsProcessed failed: %v", err)
	}

	s.ExitCleanupMode()
	if s.Active() != "" || s.CurrentBatch() != nil {
		t.Fatal("exit must tear down the in-memory session")
	}
	if got := s.TotalGroups("trip"); got != 0 {
		t.Errorf("in-memory catalog survived exit, total groups = %d", got)
	}

	// Re-entering re-analyzes, then restores persisted processed state.
	batch, _, err := s.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection after exit failed: %v", err)
	}
	if got := s.RemainingGroups("trip"); got != 2 {
		t.Errorf("remaining groups after resume = %d, want 2", got)
	}
	if batch == nil || batch.GroupIDs[0] != groups[1].ID {
		t.Errorf("resumed batch = %v, want to start at group 2", batch)
	}
}

func TestAdvanceBatchWalksCollection(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	first, _, err := s.EnterCollection(ctx, "trip", photos, nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if first.GroupIDs[0] != groups[0].ID {
		t.Fatalf("first batch = %v, want group 1", first.GroupIDs)
	}

	second, err := s.AdvanceBatch(ctx)
	if err != nil {
		t.Fatalf("AdvanceBatch failed: %v", err)
	}
	if second == nil || second.GroupIDs[0] != groups[1].ID {
		t.Fatalf("second batch = %v, want group 2", second)
	}
	if got := s.RemainingGroups("trip"); got != 2 {
		t.Errorf("remaining groups = %d, want 2", got)
	}

	third, err := s.AdvanceBatch(ctx)
	if err != nil {
		t.Fatalf("AdvanceBatch failed: %v", err)
	}
	if third == nil || third.GroupIDs[0] != groups[2].ID {
		t.Fatalf("third batch = %v, want group 3", third)
	}

	last, err := s.AdvanceBatch(ctx)
	if err != nil {
		t.Fatalf("AdvanceBatch failed: %v", err)
	}
	if last != nil {
		t.Fatalf("expected session exhaustion, got %v", last.GroupIDs)
	}
	if got := s.CollectionState("trip"); got != StateExhausted {
		t.Errorf("state = %s, want exhausted", got)
	}
}

func TestAdvanceBatchWithPrefetch(t *testing.T) {
	s, groups, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}

	// Whether or not the speculative fetch lands before the advance, the
	// served batch must be the same one.
	s.Prefetch()
	next, err := s.AdvanceBatch(ctx)
	if err != nil {
		t.Fatalf("AdvanceBatch failed: %v", err)
	}
	if next == nil || next.GroupIDs[0] != groups[1].ID {
		t.Fatalf("advanced batch = %v, want group 2", next)
	}
}

func TestPrefetchDiscardedAfterReset(t *testing.T) {
	s, _, photos := tripSetup(t)
	ctx := context.Background()

	if _, _, err := s.EnterCollection(ctx, "trip", photos, nil); err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	s.Prefetch()
	if err := s.ResetCollectionState(ctx, "trip"); err != nil {
		t.Fatalf("ResetCollectionState failed: %v", err)
	}

	s.mu.Lock()
	prefetched := s.prefetched
	s.mu.Unlock()
	if prefetched != nil {
		t.Error("prefetched batch must be discarded on reset")
	}
	if s.CurrentBatch() != nil {
		t.Error("current batch must be dropped on reset")
	}
}

func TestRoundRobinPicksAnalyzedUnexhausted(t *testing.T) {
	groupsA := []catalog.Group{makeGroup("a1", "a2")}
	groupsB := []catalog.Group{makeGroup("b1", "b2"), makeGroup("b3", "b4")}
	fa := &fakeAnalyzer{groups: map[string][]catalog.Group{
		"a": groupsA,
		"b": groupsB,
		"c": {makeGroup("c1", "c2")},
	}}
	s := NewSession(fa, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{BatchImageCap: 5})
	ctx := context.Background()

	// b is analyzed with groups remaining; c is pooled but never analyzed.
	if _, _, err := s.EnterCollection(ctx, "b", makePhotos("b1", "b2", "b3", "b4"), nil); err != nil {
		t.Fatalf("EnterCollection(b) failed: %v", err)
	}
	s.AddToPool("c")

	if _, _, err := s.EnterCollection(ctx, "a", makePhotos("a1", "a2"), nil); err != nil {
		t.Fatalf("EnterCollection(a) failed: %v", err)
	}

	// Advancing past a's only batch exhausts a; the pick must be b every
	// time: a is exhausted and c was never analyzed.
	next, err := s.AdvanceBatch(ctx)
	if err != nil {
		t.Fatalf("AdvanceBatch failed: %v", err)
	}
	if next == nil {
		t.Fatal("expected round-robin to continue with collection b")
	}
	if next.CollectionID != "b" {
		t.Errorf("round-robin picked %q, want b", next.CollectionID)
	}
	if s.Active() != "b" {
		t.Errorf("active collection = %q, want b", s.Active())
	}
}

func TestAnalyzerFailureLeavesNoCatalog(t *testing.T) {
	fa := &fakeAnalyzer{err: errors.New("classifier offline")}
	s := NewSession(fa, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{})
	ctx := context.Background()

	_, _, err := s.EnterCollection(ctx, "trip", makePhotos("p1"), nil)
	if err == nil {
		t.Fatal("expected analysis error")
	}
	if s.TotalGroups("trip") != 0 {
		t.Error("failed analysis must not commit a catalog")
	}
	if got := s.CollectionState("trip"); got != StateIdle {
		t.Errorf("state = %s, want idle for retry", got)
	}

	// Caller-initiated retry succeeds once the analyzer recovers.
	fa.recover(map[string][]catalog.Group{"trip": {makeGroup("p1", "p2")}})
	if _, _, err := s.EnterCollection(ctx, "trip", makePhotos("p1", "p2"), nil); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if s.TotalGroups("trip") != 1 {
		t.Error("retry must commit the catalog")
	}
}

func TestEnterCancelsSupersededAnalysis(t *testing.T) {
	fa := &fakeAnalyzer{
		groups:  map[string][]catalog.Group{"slow": {makeGroup("s1", "s2")}, "fast": {makeGroup("f1", "f2")}},
		blockOn: "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := fa.started
	s := NewSession(fa, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{})
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, _, err := s.EnterCollection(ctx, "slow", makePhotos("s1", "s2"), nil)
		errCh <- err
	}()
	<-started

	// Switching collections cancels the in-flight analysis of "slow".
	batch, _, err := s.EnterCollection(ctx, "fast", makePhotos("f1", "f2"), nil)
	if err != nil {
		t.Fatalf("EnterCollection(fast) failed: %v", err)
	}
	if batch == nil || batch.CollectionID != "fast" {
		t.Fatalf("expected fast batch, got %v", batch)
	}

	if err := <-errCh; err == nil {
		t.Fatal("superseded analysis must report an error")
	}
	if s.TotalGroups("slow") != 0 {
		t.Error("cancelled analysis must not commit a catalog")
	}
}

func TestMisuseIsNoOp(t *testing.T) {
	s, _, _ := tripSetup(t)
	ctx := context.Background()

	if b := s.NextBatch("unknown", nil); b != nil {
		t.Errorf("NextBatch on unknown collection = %v, want nil", b)
	}
	if b, _, err := s.CheckpointBatch(ctx, "unknown"); err != nil || b != nil {
		t.Errorf("CheckpointBatch on unknown collection = (%v, %v), want (nil, nil)", b, err)
	}
	if b, err := s.AdvanceBatch(ctx); err != nil || b != nil {
		t.Errorf("AdvanceBatch without a batch = (%v, %v), want (nil, nil)", b, err)
	}
	if got := s.TotalGroups("unknown"); got != 0 {
		t.Errorf("TotalGroups on unknown collection = %d, want 0", got)
	}
	s.Prefetch() // no active collection, must not panic
}

func TestEmptyAnalysisGoesStraightToExhausted(t *testing.T) {
	fa := &fakeAnalyzer{groups: map[string][]catalog.Group{}}
	s := NewSession(fa, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{})

	batch, _, err := s.EnterCollection(context.Background(), "empty", makePhotos("p1"), nil)
	if err != nil {
		t.Fatalf("EnterCollection failed: %v", err)
	}
	if batch != nil {
		t.Fatalf("expected no batch, got %v", batch)
	}
	if got := s.CollectionState("empty"); got != StateExhausted {
		t.Errorf("state = %s, want exhausted", got)
	}
}

func TestShouldPrefetch(t *testing.T) {
	s := NewSession(&fakeAnalyzer{}, memory.NewCheckpointStore(), memory.NewCleanupStateStore(), Options{PrefetchThreshold: 3})
	if s.ShouldPrefetch(4) {
		t.Error("4 remaining photos should not trigger prefetch at threshold 3")
	}
	if !s.ShouldPrefetch(3) {
		t.Error("3 remaining photos should trigger prefetch at threshold 3")
	}
}

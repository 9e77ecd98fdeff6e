package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
	"github.com/kozaktomas/photo-cleanup/internal/cleanup"
	"github.com/kozaktomas/photo-cleanup/internal/database/memory"
	"github.com/kozaktomas/photo-cleanup/internal/photoindex"
)

// stubAnalyzer returns canned groups per collection.
type stubAnalyzer struct {
	groups map[string][]catalog.Group
	err    error
}

func (a *stubAnalyzer) Analyze(ctx context.Context, collectionID string, photos []catalog.Photo, onProgress func(float64)) ([]catalog.Group, error) {
	if a.err != nil {
		return nil, a.err
	}
	if onProgress != nil {
		onProgress(0.5)
		onProgress(1)
	}
	return a.groups[collectionID], nil
}

// stubSource serves a fixed set of collections and photos.
type stubSource struct {
	collections []photoindex.Collection
	photos      map[string][]catalog.Photo
	err         error
}

func (s *stubSource) Collections(ctx context.Context) ([]photoindex.Collection, error) {
	return s.collections, s.err
}

func (s *stubSource) Photos(ctx context.Context, collectionID string) ([]catalog.Photo, error) {
	return s.photos[collectionID], s.err
}

func (s *stubSource) Open(ctx context.Context, photo catalog.Photo) ([]byte, error) {
	return nil, nil
}

// testHandler wires a CleanupHandler around in-memory stores and the trip
// fixture: collection "trip" with groups of sizes [4,3] and a batch cap of 5.
func testHandler(t *testing.T) (*CleanupHandler, []catalog.Group) {
	t.Helper()

	g1 := catalog.Group{PhotoUIDs: []string{"p1", "p2", "p3", "p4"}}
	g1.ID = catalog.GroupID(g1.PhotoUIDs)
	g2 := catalog.Group{PhotoUIDs: []string{"p5", "p6", "p7"}}
	g2.ID = catalog.GroupID(g2.PhotoUIDs)
	groups := []catalog.Group{g1, g2}

	photos := make([]catalog.Photo, 0, 7)
	for _, uid := range []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		photos = append(photos, catalog.Photo{UID: uid})
	}

	session := cleanup.NewSession(
		&stubAnalyzer{groups: map[string][]catalog.Group{"trip": groups}},
		memory.NewCheckpointStore(),
		memory.NewCleanupStateStore(),
		cleanup.Options{BatchImageCap: 5},
	)
	source := &stubSource{
		collections: []photoindex.Collection{{ID: "trip", Title: "Trip", PhotoCount: 7}},
		photos:      map[string][]catalog.Photo{"trip": photos},
	}
	return NewCleanupHandler(session, source, NewJobManager()), groups
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// enterAndWait runs Enter synchronously for tests: it fires the job and
// polls until it reaches a terminal state.
func enterAndWait(t *testing.T, h *CleanupHandler, collectionID string) *AnalysisJob {
	t.Helper()

	recorder := httptest.NewRecorder()
	req := requestWithChiParams(
		httptest.NewRequest(http.MethodPost, "/cleanup/"+collectionID+"/enter", nil),
		map[string]string{"collectionId": collectionID},
	)
	h.Enter(recorder, req)
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("Enter returned %d, want 202", recorder.Code)
	}

	var resp struct {
		JobID string `json:"job_id"`
	}
	decodeJSON(t, recorder, &resp)

	job := h.jobs.GetJob(resp.JobID)
	if job == nil {
		t.Fatalf("job %s not found", resp.JobID)
	}
	waitForTerminal(t, job)
	return job
}

// waitForTerminal polls a job until it completes, fails or is cancelled.
func waitForTerminal(t *testing.T, job *AnalysisJob) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if isJobTerminal(job.GetStatus()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", job.ID)
}

// decodeJSON unmarshals a recorded response body.
func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
}

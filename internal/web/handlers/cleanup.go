package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-cleanup/internal/cleanup"
	"github.com/kozaktomas/photo-cleanup/internal/photoindex"
)

// CleanupHandler exposes the cleanup session over HTTP. The server owns a
// single foreground session; entering a collection is asynchronous (analysis
// can take a while) and reports progress over SSE.
type CleanupHandler struct {
	session *cleanup.Session
	source  photoindex.Source
	jobs    *JobManager
}

// NewCleanupHandler creates a cleanup handler.
func NewCleanupHandler(session *cleanup.Session, source photoindex.Source, jobs *JobManager) *CleanupHandler {
	return &CleanupHandler{session: session, source: source, jobs: jobs}
}

// ListCollections returns the collections the photo source offers.
func (h *CleanupHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.source.Collections(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list collections: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"collections": collections,
		"count":       len(collections),
	})
}

// Enter starts entering a collection as an async job and returns its ID.
// Progress streams from the job's events endpoint; the finished job carries
// the batch to display and the resume index.
func (h *CleanupHandler) Enter(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if collectionID == "" {
		respondError(w, http.StatusBadRequest, "missing collection ID")
		return
	}

	job := h.jobs.CreateJob(collectionID)

	// The job outlives the HTTP request; its own context carries the
	// cancellation, not the request's.
	ctx, cancel := context.WithCancel(context.Background())
	job.setRunning(cancel)

	go func() {
		defer cancel()

		photos, err := h.source.Photos(ctx, collectionID)
		if err != nil {
			job.fail(err)
			return
		}

		batch, index, err := h.session.EnterCollection(ctx, collectionID, photos, job.setProgress)
		if err != nil {
			job.fail(err)
			return
		}
		job.complete(batch, index)
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetJob returns the current state of an analysis job.
func (h *CleanupHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job := h.jobs.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job.Snapshot())
}

// CancelJob cancels a running analysis job.
func (h *CleanupHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job := h.jobs.GetJob(chi.URLParam(r, "jobId"))
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	job.Cancel()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// JobEvents streams job progress over SSE.
func (h *CleanupHandler) JobEvents(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r, func(id string) SSEJob {
		if job := h.jobs.GetJob(id); job != nil {
			return job
		}
		return nil
	})
}

// CurrentBatch returns the batch under review.
func (h *CleanupHandler) CurrentBatch(w http.ResponseWriter, r *http.Request) {
	batch := h.session.CurrentBatch()
	if batch == nil {
		respondError(w, http.StatusNotFound, "no batch under review")
		return
	}
	respondJSON(w, http.StatusOK, batch)
}

// Advance finishes the displayed batch and serves the next one. An exhausted
// session responds with exhausted=true and no batch.
func (h *CleanupHandler) Advance(w http.ResponseWriter, r *http.Request) {
	batch, err := h.session.AdvanceBatch(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to advance: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"batch":     batch,
		"exhausted": batch == nil,
	})
}

// Prefetch kicks off speculative computation of the next batch.
func (h *CleanupHandler) Prefetch(w http.ResponseWriter, r *http.Request) {
	h.session.Prefetch()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "prefetching"})
}

// CheckpointRequest carries a mid-batch position.
type CheckpointRequest struct {
	GroupIDs []string `json:"group_ids"`
	Index    int      `json:"index"`
}

// SaveCheckpoint persists the mid-batch position for a collection.
func (h *CleanupHandler) SaveCheckpoint(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	var req CheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.GroupIDs) == 0 {
		respondError(w, http.StatusBadRequest, "group_ids is required")
		return
	}
	if err := h.session.SaveCheckpoint(r.Context(), collectionID, req.GroupIDs, req.Index); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save checkpoint: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// ClearCheckpoint drops the persisted checkpoint for a collection.
func (h *CleanupHandler) ClearCheckpoint(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if err := h.session.ClearCheckpoint(r.Context(), collectionID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear checkpoint: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// MarkProcessedRequest lists the groups to mark processed.
type MarkProcessedRequest struct {
	GroupIDs []string `json:"group_ids"`
}

// MarkProcessed marks whole groups as processed.
func (h *CleanupHandler) MarkProcessed(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	var req MarkProcessedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := h.session.MarkGroupsProcessed(r.Context(), collectionID, req.GroupIDs); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark groups: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"remaining_groups": h.session.RemainingGroups(collectionID),
		"remaining_images": h.session.RemainingImages(collectionID),
	})
}

// Stats returns the counters for a collection.
func (h *CleanupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	respondJSON(w, http.StatusOK, map[string]any{
		"collection_id":    collectionID,
		"state":            h.session.CollectionState(collectionID).String(),
		"total_groups":     h.session.TotalGroups(collectionID),
		"remaining_groups": h.session.RemainingGroups(collectionID),
		"total_images":     h.session.TotalImages(collectionID),
		"remaining_images": h.session.RemainingImages(collectionID),
	})
}

// Reset clears all processed state and the checkpoint for a collection and
// forces re-analysis on the next enter.
func (h *CleanupHandler) Reset(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	if err := h.session.ResetCollectionState(r.Context(), collectionID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reset: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Exit tears down the in-memory session. Persisted state is untouched.
func (h *CleanupHandler) Exit(w http.ResponseWriter, r *http.Request) {
	h.session.ExitCleanupMode()
	respondJSON(w, http.StatusOK, map[string]string{"status": "exited"})
}

package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/photo-cleanup/internal/cleanup"
)

// JobStatus represents the status of an async analysis job.
type JobStatus string

// JobStatus constants define the lifecycle states of an analysis job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// eventChannelBuffer is the buffer size for job event channels.
const eventChannelBuffer = 100

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for
// async jobs.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, eventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners. Listeners with full buffers are
// skipped rather than blocking the job.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
		}
	}
}

// AnalysisJob tracks one async EnterCollection run: analysis progress, and
// on completion the batch to display plus the resume index.
type AnalysisJob struct {
	EventBroadcaster

	ID           string         `json:"id"`
	CollectionID string         `json:"collection_id"`
	Status       JobStatus      `json:"status"`
	Progress     float64        `json:"progress"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Batch        *cleanup.Batch `json:"batch,omitempty"`
	Index        int            `json:"index"`
}

// GetStatus returns the current job status (implements SSEJob).
func (j *AnalysisJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// Snapshot returns a copy of the job safe for JSON encoding.
func (j *AnalysisJob) Snapshot() AnalysisJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return AnalysisJob{
		ID:           j.ID,
		CollectionID: j.CollectionID,
		Status:       j.Status,
		Progress:     j.Progress,
		Error:        j.Error,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		Batch:        j.Batch,
		Index:        j.Index,
	}
}

// Cancel cancels the analysis job.
func (j *AnalysisJob) Cancel() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.Status = JobStatusCancelled
	j.mu.Unlock()
	j.SendEvent(JobEvent{Type: "cancelled", Message: "Job cancelled by user"})
}

func (j *AnalysisJob) setRunning(cancel context.CancelFunc) {
	j.mu.Lock()
	j.Status = JobStatusRunning
	j.cancel = cancel
	j.mu.Unlock()
}

func (j *AnalysisJob) setProgress(v float64) {
	j.mu.Lock()
	j.Progress = v
	j.mu.Unlock()
	j.SendEvent(JobEvent{Type: "progress", Data: v})
}

func (j *AnalysisJob) complete(batch *cleanup.Batch, index int) {
	now := time.Now()
	j.mu.Lock()
	j.Status = JobStatusCompleted
	j.Progress = 1
	j.Batch = batch
	j.Index = index
	j.CompletedAt = &now
	j.mu.Unlock()
	j.SendEvent(JobEvent{Type: "completed", Data: j.Snapshot()})
}

func (j *AnalysisJob) fail(err error) {
	now := time.Now()
	j.mu.Lock()
	j.Status = JobStatusFailed
	j.Error = err.Error()
	j.CompletedAt = &now
	j.mu.Unlock()
	j.SendEvent(JobEvent{Type: "failed", Message: err.Error()})
}

// JobManager manages async analysis jobs.
type JobManager struct {
	jobs map[string]*AnalysisJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*AnalysisJob)}
}

// CreateJob creates a pending analysis job for a collection.
func (m *JobManager) CreateJob(collectionID string) *AnalysisJob {
	job := &AnalysisJob{
		ID:           uuid.New().String(),
		CollectionID: collectionID,
		Status:       JobStatusPending,
		StartedAt:    time.Now(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job
}

// GetJob retrieves a job by ID, or nil.
func (m *JobManager) GetJob(id string) *AnalysisJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}

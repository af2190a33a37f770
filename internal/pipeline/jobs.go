package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/aiscan/internal/document"
	"github.com/google/uuid"
)

// JobStatus is the state of a job or of one document inside it.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusRunning     JobStatus = "running"
	StatusExtracting  JobStatus = "extracting"
	StatusSegmenting  JobStatus = "segmenting"
	StatusClassifying JobStatus = "classifying"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
)

// Job tracks the asynchronous analysis of a batch of documents.
type Job struct {
	mu sync.Mutex

	ID        string
	Status    JobStatus
	Phase     string
	Overrides Overrides
	CreatedAt time.Time
	UpdatedAt time.Time

	docs   []DocumentState
	inputs []FileInput
	errors []string
}

// DocumentState is the per-document view of a job.
type DocumentState struct {
	Filename    string           `json:"filename"`
	ContentHash string           `json:"content_hash"`
	Status      JobStatus        `json:"status"`
	Report      *document.Report `json:"report,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Progress summarizes document outcomes.
type Progress struct {
	Documents int      `json:"documents"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// NewJob creates a queued job for files.
func NewJob(files []FileInput, o Overrides) *Job {
	now := time.Now()
	j := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Overrides: o,
		CreatedAt: now,
		UpdatedAt: now,
		docs:      make([]DocumentState, len(files)),
		inputs:    files,
	}
	for i, f := range files {
		j.docs[i] = DocumentState{
			Filename:    f.Filename,
			ContentHash: ContentHashHex(f.Data),
			Status:      StatusQueued,
		}
	}
	return j
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetDocStatus moves document i to a new phase.
func (j *Job) SetDocStatus(i int, status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.docs[i].Status = status
	j.UpdatedAt = time.Now()
}

// CompleteDoc stores the report for document i.
func (j *Job) CompleteDoc(i int, r *document.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.docs[i].Status = StatusCompleted
	j.docs[i].Report = r
	j.UpdatedAt = time.Now()
}

// FailDoc records the error for document i.
func (j *Job) FailDoc(i int, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.docs[i].Status = StatusFailed
	j.docs[i].Error = err.Error()
	j.errors = append(j.errors, fmt.Sprintf("%s: %s", j.docs[i].Filename, err))
	j.UpdatedAt = time.Now()
}

// AddError records a job-level error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Inputs returns the uploaded files awaiting analysis.
func (j *Job) Inputs() []FileInput {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inputs
}

// ReleaseInputs drops the raw file bytes once they are no longer needed.
func (j *Job) ReleaseInputs() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inputs = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string          `json:"job_id"`
	Status    JobStatus       `json:"status"`
	Phase     string          `json:"phase"`
	Progress  Progress        `json:"progress"`
	Documents []DocumentState `json:"documents"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	docs := make([]DocumentState, len(j.docs))
	copy(docs, j.docs)

	p := Progress{Documents: len(docs), Errors: errs}
	for _, d := range docs {
		switch d.Status {
		case StatusCompleted:
			p.Completed++
		case StatusFailed:
			p.Failed++
		}
	}
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		Documents: docs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// Package jobs tracks asynchronous ordering jobs in memory. Every request
// gets an isolated job record; the store is safe for concurrent use.
package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quirelabs/orderd/internal/resolver"
	"github.com/quirelabs/orderd/internal/sections"
)

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// LogEntry is one timestamped progress message.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
}

// Job is the full record of one ordering request.
type Job struct {
	ID        string                   `json:"id"`
	Status    Status                   `json:"status"`
	Progress  int                      `json:"progress"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
	Logs      []LogEntry               `json:"logs"`
	Result    *resolver.OrderingResult `json:"result,omitempty"`
	TOC       []sections.TOCEntry      `json:"toc,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// Store holds jobs in memory.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

// Create registers a new pending job and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &Job{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id
}

// UpdateStatus transitions a job and clamps progress to [0, 100].
func (s *Store) UpdateStatus(id string, status Status, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job.Status = status
	job.Progress = clampProgress(progress)
	job.UpdatedAt = s.now()
	return nil
}

// AppendLog adds a timestamped log entry to a job.
func (s *Store) AppendLog(id, level, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job.Logs = append(job.Logs, LogEntry{
		Timestamp: s.now(),
		Message:   message,
		Level:     level,
	})
	job.UpdatedAt = s.now()
	return nil
}

// SetResult stores the ordering result with its derived table of contents
// and marks the job completed.
func (s *Store) SetResult(id string, result *resolver.OrderingResult, toc []sections.TOCEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job.Result = result
	job.TOC = toc
	job.Status = StatusCompleted
	job.Progress = 100
	job.UpdatedAt = s.now()
	return nil
}

// SetError records a failure message and marks the job failed.
func (s *Store) SetError(id string, jobErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job.Error = jobErr.Error()
	job.Status = StatusFailed
	job.UpdatedAt = s.now()
	return nil
}

// Get returns a copy of the job record.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	copied := *job
	copied.Logs = append([]LogEntry(nil), job.Logs...)
	copied.TOC = append([]sections.TOCEntry(nil), job.TOC...)
	return &copied, nil
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

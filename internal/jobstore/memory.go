package jobstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"orderlens/internal/domain"
	"orderlens/internal/port"
)

// MemoryStore is an in-memory JobStore. Reads hand out snapshots; all
// mutation goes through Update so per-job state transitions are serialized.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*domain.Job)}
}

var _ port.JobStore = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]domain.JobSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.JobSummary, 0, len(s.jobs))
	for _, job := range s.jobs {
		summaries = append(summaries, job.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Update applies fn to the stored job under the store lock. fn sees the live
// record, so transitions that must happen exactly once (completing a run,
// attaching the comparison) are safe against concurrent model workers.
func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*domain.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	fn(job)
	return nil
}

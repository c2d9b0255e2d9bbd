package jobstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderlens/internal/domain"
)

func newTestJob(createdAt time.Time) *domain.Job {
	return &domain.Job{
		ID:           uuid.New(),
		Status:       domain.JobStatusProcessing,
		OriginalName: "order.pdf",
		CreatedAt:    createdAt,
		ModelResults: map[string]*domain.ModelRun{
			"gemini": {Model: "gemini", Status: domain.RunStatusProcessing},
		},
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	job := newTestJob(time.Now())

	require.NoError(t, store.Create(context.Background(), job))

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "order.pdf", got.OriginalName)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	store := NewMemoryStore()
	job := newTestJob(time.Now())

	require.NoError(t, store.Create(context.Background(), job))
	assert.Error(t, store.Create(context.Background(), job))
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestMemoryStore_GetReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	job := newTestJob(time.Now())
	require.NoError(t, store.Create(context.Background(), job))

	snapshot, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	snapshot.ModelResults["gemini"].Status = domain.RunStatusFailed

	fresh, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusProcessing, fresh.ModelResults["gemini"].Status)
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()
	job := newTestJob(time.Now())
	require.NoError(t, store.Create(context.Background(), job))

	err := store.Update(context.Background(), job.ID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.Progress = 1
	})
	require.NoError(t, err)

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.Equal(t, 1.0, got.Progress)
}

func TestMemoryStore_UpdateNotFound(t *testing.T) {
	store := NewMemoryStore()
	err := store.Update(context.Background(), uuid.New(), func(*domain.Job) {})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestMemoryStore_ListSortedNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	older := newTestJob(time.Now().Add(-time.Hour))
	newer := newTestJob(time.Now())
	require.NoError(t, store.Create(context.Background(), older))
	require.NoError(t, store.Create(context.Background(), newer))

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.ID, summaries[0].ID)
	assert.Equal(t, older.ID, summaries[1].ID)
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	store := NewMemoryStore()
	job := newTestJob(time.Now())
	require.NoError(t, store.Create(context.Background(), job))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(context.Background(), job.ID, func(j *domain.Job) {
				j.Progress += 0.01
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Progress, 1e-9)
}

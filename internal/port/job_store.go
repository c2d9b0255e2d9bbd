package port

import (
	"context"

	"github.com/google/uuid"

	"orderlens/internal/domain"
)

// JobStore holds job records keyed by job id. Get and List return snapshot
// copies; all mutation goes through Update, which applies fn under the
// store's exclusion for that job so concurrent model tasks never lose
// progress writes or double-fire completion logic.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	List(ctx context.Context) ([]domain.JobSummary, error)
	Update(ctx context.Context, id uuid.UUID, fn func(job *domain.Job)) error
}

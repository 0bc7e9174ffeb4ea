package patient

import (
	"context"

	"github.com/digidocs/digidocs/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	List(ctx context.Context, params pagination.Params) ([]*Patient, int64, error)
	Update(ctx context.Context, p *Patient) error

	// FindOpenQueueEntry returns nil, nil when the patient has no entry in
	// Waiting or InProgress.
	FindOpenQueueEntry(ctx context.Context, patientID int64) (*QueueEntry, error)
	CreateQueueEntry(ctx context.Context, e *QueueEntry) error
	ListQueue(ctx context.Context) ([]*QueueItem, error)
}

package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)

	// IncrementVisits advances the patient's visit counter by one and
	// returns the new count.
	IncrementVisits(ctx context.Context, id uuid.UUID) (int, error)
}

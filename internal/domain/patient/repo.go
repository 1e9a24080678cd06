package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patients. Every method is scoped to a clinic; a patient
// belonging to another clinic behaves exactly like a missing one.
type Repository interface {
	// Create inserts the patient and assigns its code inside one transaction.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error)
	GetByPhone(ctx context.Context, clinicID uuid.UUID, phone string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// Deactivate soft-deletes the patient. Rows are never removed.
	Deactivate(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	Search(ctx context.Context, clinicID uuid.UUID, query string, limit, offset int) ([]*Patient, int, error)
}

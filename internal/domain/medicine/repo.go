package medicine

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists medicines and their stock movements, clinic-scoped.
// ApplyMovement owns the transaction tying the stock change to its audit row;
// when an enclosing transaction is active (an invoice being written, say) it
// joins that one instead.
type Repository interface {
	// Create inserts the medicine and, when it starts with stock on hand,
	// the opening "in" movement, atomically.
	Create(ctx context.Context, m *Medicine, openingMovement *StockMovement) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Deactivate(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Medicine, int, error)

	// ApplyMovement atomically shifts stock by delta and records the
	// movement. A negative delta that would drive stock below zero fails
	// with a conflict and leaves nothing written.
	ApplyMovement(ctx context.Context, mv *StockMovement, delta int) (*StockLevel, error)
	ListMovements(ctx context.Context, clinicID, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error)
}

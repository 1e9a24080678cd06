package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists invoices, clinic-scoped. Insert and NextNumber expect
// to run inside the transaction the service opens around invoice creation,
// alongside the stock decrements.
type Repository interface {
	// NextNumber returns the next sequence for the clinic's month bucket.
	// The unique index on (clinic_id, invoice_number) catches racers.
	NextNumber(ctx context.Context, clinicID uuid.UUID, year int, month time.Month) (int, error)
	// Insert writes the header and all line items.
	Insert(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Invoice, int, error)
	// UpdatePayment persists paid amount, payment method and status.
	UpdatePayment(ctx context.Context, inv *Invoice) error
}

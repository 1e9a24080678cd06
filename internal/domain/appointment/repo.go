package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments, clinic-scoped. CreateExclusive and
// UpdateExclusive own the transaction that closes the double-booking race:
// the slot check and the write happen atomically, with the partial unique
// index on active slots as the final arbiter.
type Repository interface {
	CreateExclusive(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// UpdateExclusive re-runs the slot conflict check (excluding the
	// appointment itself) before persisting a moved slot.
	UpdateExclusive(ctx context.Context, a *Appointment) error
	ListByDoctorDate(ctx context.Context, clinicID, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)
	ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error)
}

// Filter narrows appointment listings.
type Filter struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    Status
	DateFrom  time.Time
	DateTo    time.Time
}

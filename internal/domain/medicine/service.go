package medicine

import (
	"context"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

type Service struct {
	medicines Repository
}

func NewService(medicines Repository) *Service {
	return &Service{medicines: medicines}
}

// AddItem creates a medicine. Opening stock, when present, is recorded as an
// "in" movement in the same transaction so the audit trail starts at zero.
func (s *Service) AddItem(ctx context.Context, clinicID uuid.UUID, m *Medicine, performedBy *uuid.UUID) error {
	m.ClinicID = clinicID
	if m.Unit == "" {
		m.Unit = "unit"
	}
	if err := m.Validate(); err != nil {
		return err
	}

	var opening *StockMovement
	if m.QuantityStock > 0 {
		reason := "opening stock"
		opening = &StockMovement{
			Type:        MovementIn,
			Quantity:    m.QuantityStock,
			Reason:      &reason,
			PerformedBy: performedBy,
		}
	}
	return s.medicines.Create(ctx, m, opening)
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, clinicID, id)
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, u *Update) (*Medicine, error) {
	m, err := s.medicines.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	m.Apply(u)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.medicines.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Deactivate(ctx context.Context, clinicID, id uuid.UUID) error {
	return s.medicines.Deactivate(ctx, clinicID, id)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, clinicID, f, limit, offset)
}

// AddStock receives stock in. Quantity must be positive.
func (s *Service) AddStock(ctx context.Context, clinicID, medicineID uuid.UUID, qty int, reason, notes string, performedBy *uuid.UUID) (*StockLevel, error) {
	if qty <= 0 {
		return nil, apperr.Business("quantity must be positive")
	}
	return s.apply(ctx, &StockMovement{
		ClinicID:    clinicID,
		MedicineID:  medicineID,
		Type:        MovementIn,
		Quantity:    qty,
		Reason:      optional(reason),
		Notes:       optional(notes),
		PerformedBy: performedBy,
	}, qty)
}

// RemoveStock issues stock out. Quantity must be positive and covered by the
// stock on hand.
func (s *Service) RemoveStock(ctx context.Context, clinicID, medicineID uuid.UUID, qty int, reason, notes string, performedBy *uuid.UUID) (*StockLevel, error) {
	if qty <= 0 {
		return nil, apperr.Business("quantity must be positive")
	}
	return s.apply(ctx, &StockMovement{
		ClinicID:    clinicID,
		MedicineID:  medicineID,
		Type:        MovementOut,
		Quantity:    qty,
		Reason:      optional(reason),
		Notes:       optional(notes),
		PerformedBy: performedBy,
	}, -qty)
}

// AdjustStock corrects stock by a signed delta. The audit row records the
// correction as an adjustment regardless of direction.
func (s *Service) AdjustStock(ctx context.Context, clinicID, medicineID uuid.UUID, delta int, reason, notes string, performedBy *uuid.UUID) (*StockLevel, error) {
	if delta == 0 {
		return nil, apperr.Business("adjustment quantity cannot be zero")
	}
	qty := delta
	if qty < 0 {
		qty = -qty
	}
	return s.apply(ctx, &StockMovement{
		ClinicID:    clinicID,
		MedicineID:  medicineID,
		Type:        MovementAdjustment,
		Quantity:    qty,
		Reason:      optional(reason),
		Notes:       optional(notes),
		PerformedBy: performedBy,
	}, delta)
}

func (s *Service) apply(ctx context.Context, mv *StockMovement, delta int) (*StockLevel, error) {
	level, err := s.medicines.ApplyMovement(ctx, mv, delta)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return nil, apperr.Business("insufficient stock")
		}
		return nil, err
	}
	return level, nil
}

func (s *Service) Movements(ctx context.Context, clinicID, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	if _, err := s.medicines.GetByID(ctx, clinicID, medicineID); err != nil {
		return nil, 0, err
	}
	return s.medicines.ListMovements(ctx, clinicID, medicineID, limit, offset)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

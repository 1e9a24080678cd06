package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// Register creates a patient. The phone number must be unused within the
// clinic; a duplicate is a domain rule violation, not an infrastructure fault.
func (s *Service) Register(ctx context.Context, clinicID uuid.UUID, p *Patient) error {
	p.ClinicID = clinicID
	if err := p.Validate(); err != nil {
		return err
	}

	if _, err := s.patients.GetByPhone(ctx, clinicID, p.Phone); err == nil {
		return apperr.Business("phone number already registered")
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return err
	}

	if err := s.patients.Create(ctx, p); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return apperr.Business("phone number already registered")
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, clinicID, id)
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, u *Update) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	p.Apply(u)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if u.Phone != nil && *u.Phone != "" {
		other, err := s.patients.GetByPhone(ctx, clinicID, *u.Phone)
		if err == nil && other.ID != p.ID {
			return nil, apperr.Business("phone number already registered")
		}
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
	}

	if err := s.patients.Update(ctx, p); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return nil, apperr.Business("phone number already registered")
		}
		return nil, err
	}
	return p, nil
}

// Deactivate soft-deletes the patient; history stays queryable.
func (s *Service) Deactivate(ctx context.Context, clinicID, id uuid.UUID) error {
	return s.patients.Deactivate(ctx, clinicID, id)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, clinicID, limit, offset)
}

func (s *Service) Search(ctx context.Context, clinicID uuid.UUID, query string, limit, offset int) ([]*Patient, int, error) {
	if query == "" {
		return s.patients.List(ctx, clinicID, limit, offset)
	}
	return s.patients.Search(ctx, clinicID, query, limit, offset)
}

// Exists reports whether an active patient belongs to the clinic. Other
// domains use this to verify references without importing the repository.
func (s *Service) Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	_, err := s.patients.GetByID(ctx, clinicID, id)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

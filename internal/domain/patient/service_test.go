package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*Patient
	seq   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.Active = true
	m.seq++
	p.PatientCode = FormatCode(m.seq)
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok || p.ClinicID != clinicID || !p.Active {
		return nil, apperr.NotFound("patient")
	}
	return p, nil
}

func (m *mockRepo) GetByPhone(_ context.Context, clinicID uuid.UUID, phone string) (*Patient, error) {
	for _, p := range m.items {
		if p.ClinicID == clinicID && p.Phone == phone && p.Active {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.items[p.ID]; !ok {
		return apperr.NotFound("patient")
	}
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) Deactivate(_ context.Context, clinicID, id uuid.UUID) error {
	p, ok := m.items[id]
	if !ok || p.ClinicID != clinicID || !p.Active {
		return apperr.NotFound("patient")
	}
	p.Active = false
	return nil
}

func (m *mockRepo) List(_ context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.items {
		if p.ClinicID == clinicID && p.Active {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, clinicID uuid.UUID, _ string, limit, offset int) ([]*Patient, int, error) {
	return m.List(context.Background(), clinicID, limit, offset)
}

// -- Tests --

func TestRegisterAssignsCode(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	p := validPatient()
	if err := svc.Register(context.Background(), clinic, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.PatientCode != "PAT-000001" {
		t.Fatalf("patient code = %s", p.PatientCode)
	}
	if p.ClinicID != clinic {
		t.Fatalf("clinic id not set")
	}
	if !p.Active {
		t.Fatalf("new patient not active")
	}
}

func TestRegisterRejectsDuplicatePhone(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	if err := svc.Register(context.Background(), clinic, validPatient()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := svc.Register(context.Background(), clinic, validPatient())
	if !apperr.IsKind(err, apperr.KindBusiness) {
		t.Fatalf("expected business error, got %v", err)
	}
	if err.Error() != "phone number already registered" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRegisterSamePhoneDifferentClinics(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.Register(context.Background(), uuid.New(), validPatient()); err != nil {
		t.Fatalf("first clinic: %v", err)
	}
	if err := svc.Register(context.Background(), uuid.New(), validPatient()); err != nil {
		t.Fatalf("second clinic: %v", err)
	}
}

func TestRegisterValidatesBeforeRepo(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := validPatient()
	p.Phone = "123"
	err := svc.Register(context.Background(), uuid.New(), p)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("repository touched for invalid input")
	}
}

func TestUpdatePatchesFields(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	p := validPatient()
	if err := svc.Register(context.Background(), clinic, p); err != nil {
		t.Fatalf("register: %v", err)
	}

	email := "asha@example.com"
	got, err := svc.Update(context.Background(), clinic, p.ID, &Update{Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Email == nil || *got.Email != email {
		t.Fatalf("email not patched")
	}
	if got.Phone != "9876543210" {
		t.Fatalf("phone changed unexpectedly: %s", got.Phone)
	}
}

func TestUpdateRejectsPhoneOfAnotherPatient(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	first := validPatient()
	if err := svc.Register(context.Background(), clinic, first); err != nil {
		t.Fatalf("register first: %v", err)
	}
	second := validPatient()
	second.Phone = "9000000001"
	if err := svc.Register(context.Background(), clinic, second); err != nil {
		t.Fatalf("register second: %v", err)
	}

	phone := first.Phone
	_, err := svc.Update(context.Background(), clinic, second.ID, &Update{Phone: &phone})
	if !apperr.IsKind(err, apperr.KindBusiness) {
		t.Fatalf("expected business error, got %v", err)
	}
}

func TestUpdateKeepsOwnPhone(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	p := validPatient()
	if err := svc.Register(context.Background(), clinic, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	phone := p.Phone
	if _, err := svc.Update(context.Background(), clinic, p.ID, &Update{Phone: &phone}); err != nil {
		t.Fatalf("re-saving own phone: %v", err)
	}
}

func TestDeactivateHidesPatient(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	p := validPatient()
	if err := svc.Register(context.Background(), clinic, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Deactivate(context.Background(), clinic, p.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := svc.Get(context.Background(), clinic, p.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after deactivate, got %v", err)
	}
}

func TestGetScopedToClinic(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	p := validPatient()
	if err := svc.Register(context.Background(), clinic, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Get(context.Background(), uuid.New(), p.ID)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("cross-clinic read should be not found, got %v", err)
	}
}

func TestExists(t *testing.T) {
	svc := NewService(newMockRepo())
	clinic := uuid.New()

	p := validPatient()
	if err := svc.Register(context.Background(), clinic, p); err != nil {
		t.Fatalf("register: %v", err)
	}
	ok, err := svc.Exists(context.Background(), clinic, p.ID)
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
	ok, err = svc.Exists(context.Background(), clinic, uuid.New())
	if err != nil || ok {
		t.Fatalf("missing patient exists = %v, %v", ok, err)
	}
}

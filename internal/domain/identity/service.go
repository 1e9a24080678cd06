package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
	"github.com/ayurclinic/clinic/internal/platform/auth"
)

const minPasswordLength = 8

type Service struct {
	users   UserRepository
	clinics ClinicRepository
	jwt     auth.JWTConfig
}

func NewService(users UserRepository, clinics ClinicRepository, jwt auth.JWTConfig) *Service {
	return &Service{users: users, clinics: clinics, jwt: jwt}
}

// Login verifies the credentials and issues a clinic-scoped token. Wrong
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, apperr.Validation("credentials", "email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(creds.Email))
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.Business("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)) != nil {
		return nil, apperr.Business("invalid credentials")
	}

	token, err := auth.IssueToken(s.jwt, u.ID, u.ClinicID, u.Role)
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}
	return &Session{Token: token, User: u}, nil
}

// CreateUser provisions a staff account in the clinic.
func (s *Service) CreateUser(ctx context.Context, clinicID uuid.UUID, in CreateInput) (*User, error) {
	u := &User{
		ClinicID: clinicID,
		Email:    strings.TrimSpace(in.Email),
		FullName: in.FullName,
		Role:     in.Role,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}
	u.PasswordHash = string(hash)

	if err := s.users.Create(ctx, u); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return nil, apperr.Business("email already in use")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, clinicID, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, clinicID, id)
}

func (s *Service) ListUsers(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, clinicID, limit, offset)
}

// UpdateUser changes name and role.
func (s *Service) UpdateUser(ctx context.Context, clinicID, id uuid.UUID, fullName, role string) (*User, error) {
	u, err := s.users.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if fullName != "" {
		u.FullName = fullName
	}
	if role != "" {
		u.Role = role
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, clinicID, id uuid.UUID, current, next string) error {
	u, err := s.users.GetByID(ctx, clinicID, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.Business("current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return apperr.Validation("password", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(err, "hash password")
	}
	return s.users.UpdatePassword(ctx, clinicID, id, string(hash))
}

func (s *Service) DeactivateUser(ctx context.Context, clinicID, id uuid.UUID) error {
	return s.users.Deactivate(ctx, clinicID, id)
}

// CreateClinic provisions a tenant with its first admin account, atomically
// when called inside a transaction.
func (s *Service) CreateClinic(ctx context.Context, c *Clinic, admin *CreateInput) (*Clinic, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.clinics.Create(ctx, c); err != nil {
		return nil, err
	}
	if admin != nil {
		admin.Role = RoleAdmin
		if _, err := s.CreateUser(ctx, c.ID, *admin); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

func (s *Service) ListClinics(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.List(ctx, limit, offset)
}

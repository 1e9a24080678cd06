package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists staff accounts, clinic-scoped.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*User, error)
	// GetByEmail looks the account up across clinics; login happens before
	// any clinic scope exists.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, clinicID, id uuid.UUID, hash string) error
	Deactivate(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error)
}

// ClinicRepository persists tenants.
type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	List(ctx context.Context, limit, offset int) ([]*Clinic, int, error)
}

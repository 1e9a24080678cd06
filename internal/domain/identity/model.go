package identity

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleReceptionist = "receptionist"
	RolePharmacist   = "pharmacist"
)

var validRoles = map[string]bool{
	RoleAdmin: true, RoleDoctor: true, RoleReceptionist: true, RolePharmacist: true,
}

// User is a staff account. PasswordHash never leaves the service layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	ClinicID     uuid.UUID `json:"clinic_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks the account fields, password aside.
func (u *User) Validate() error {
	if !emailPattern.MatchString(u.Email) {
		return apperr.Validation("email", "invalid email address")
	}
	if u.FullName == "" {
		return apperr.Validation("full_name", "full name is required")
	}
	if !validRoles[u.Role] {
		return apperr.Validation("role", fmt.Sprintf("invalid role: %s", u.Role))
	}
	return nil
}

// CreateInput is the payload for provisioning a user.
type CreateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Credentials is a login attempt.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a successful login.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Clinic is a tenant. Everything else in the system hangs off its id.
type Clinic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Clinic) Validate() error {
	if c.Name == "" {
		return apperr.Validation("name", "clinic name is required")
	}
	return nil
}

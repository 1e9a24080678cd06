package patient

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

// Patient is a person registered at a clinic. Phone is the natural key within
// a clinic; PatientCode is the human-facing identifier printed on documents.
type Patient struct {
	ID                    uuid.UUID  `json:"id"`
	ClinicID              uuid.UUID  `json:"clinic_id"`
	PatientCode           string     `json:"patient_code"`
	FirstName             string     `json:"first_name"`
	LastName              *string    `json:"last_name,omitempty"`
	DateOfBirth           *time.Time `json:"date_of_birth,omitempty"`
	Age                   *int       `json:"age,omitempty"`
	Gender                string     `json:"gender"`
	Phone                 string     `json:"phone"`
	Email                 *string    `json:"email,omitempty"`
	Address               *string    `json:"address,omitempty"`
	DoshaType             *string    `json:"dosha_type,omitempty"`
	Allergies             *string    `json:"allergies,omitempty"`
	MedicalHistory        *string    `json:"medical_history,omitempty"`
	EmergencyContactName  *string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone,omitempty"`
	Active                bool       `json:"active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Update carries a partial patient edit. Nil fields are left untouched.
type Update struct {
	FirstName             *string    `json:"first_name"`
	LastName              *string    `json:"last_name"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Age                   *int       `json:"age"`
	Gender                *string    `json:"gender"`
	Phone                 *string    `json:"phone"`
	Email                 *string    `json:"email"`
	Address               *string    `json:"address"`
	DoshaType             *string    `json:"dosha_type"`
	Allergies             *string    `json:"allergies"`
	MedicalHistory        *string    `json:"medical_history"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
}

var phonePattern = regexp.MustCompile(`^\d{10}$`)

var validGenders = map[string]bool{
	"Male": true, "Female": true, "Other": true,
}

var validDoshas = map[string]bool{
	"vata": true, "pitta": true, "kapha": true,
	"vata-pitta": true, "pitta-kapha": true, "vata-kapha": true,
	"tridosha": true,
}

// Validate checks the patient before any database work.
func (p *Patient) Validate() error {
	if p.FirstName == "" {
		return apperr.Validation("first_name", "first name is required")
	}
	if !phonePattern.MatchString(p.Phone) {
		return apperr.Validation("phone", "phone must be a 10-digit number")
	}
	if p.Gender != "" && !validGenders[p.Gender] {
		return apperr.Validation("gender", fmt.Sprintf("invalid gender: %s", p.Gender))
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 150) {
		return apperr.Validation("age", "age must be between 0 and 150")
	}
	if p.DoshaType != nil && *p.DoshaType != "" && !validDoshas[*p.DoshaType] {
		return apperr.Validation("dosha_type", fmt.Sprintf("invalid dosha type: %s", *p.DoshaType))
	}
	return nil
}

// Apply copies the non-nil fields of u onto p.
func (p *Patient) Apply(u *Update) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = u.LastName
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth
	}
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Email != nil {
		p.Email = u.Email
	}
	if u.Address != nil {
		p.Address = u.Address
	}
	if u.DoshaType != nil {
		p.DoshaType = u.DoshaType
	}
	if u.Allergies != nil {
		p.Allergies = u.Allergies
	}
	if u.MedicalHistory != nil {
		p.MedicalHistory = u.MedicalHistory
	}
	if u.EmergencyContactName != nil {
		p.EmergencyContactName = u.EmergencyContactName
	}
	if u.EmergencyContactPhone != nil {
		p.EmergencyContactPhone = u.EmergencyContactPhone
	}
}

// FormatCode renders the printable patient code for a sequence number.
func FormatCode(seq int) string {
	return fmt.Sprintf("PAT-%06d", seq)
}

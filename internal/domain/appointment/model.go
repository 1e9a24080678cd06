package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusMissed     Status = "missed"
)

// transitions is the full lifecycle. Completed is terminal; cancelled and
// missed slots can be re-booked by moving back to scheduled.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled, StatusMissed},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusMissed},
	StatusCancelled:  {StatusScheduled},
	StatusMissed:     {StatusScheduled},
	StatusCompleted:  {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the lifecycle permits moving to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionRules returns the states reachable from s.
func TransitionRules(s Status) []Status {
	return transitions[s]
}

const (
	DefaultDurationMinutes = 30
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 180

	// EarlyStartWindow is how far before the slot a consultation may begin.
	EarlyStartWindow = 15 * time.Minute
)

// Appointment is a booked consultation slot. Date carries the calendar day;
// StartTime is the wall-clock slot in HH:MM.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	ClinicID        uuid.UUID  `json:"clinic_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        uuid.UUID  `json:"doctor_id"`
	Date            time.Time  `json:"appointment_date"`
	StartTime       string     `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          Status     `json:"status"`
	ChiefComplaint  *string    `json:"chief_complaint,omitempty"`
	Diagnosis       *string    `json:"diagnosis,omitempty"`
	TreatmentNotes  *string    `json:"treatment_notes,omitempty"`
	FollowupDate    *time.Time `json:"followup_date,omitempty"`
	CancelReason    *string    `json:"cancel_reason,omitempty"`
	MissReason      *string    `json:"miss_reason,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	MissedAt        *time.Time `json:"missed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate checks the appointment before any database work.
func (a *Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id", "patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id", "doctor_id is required")
	}
	if a.Date.IsZero() {
		return apperr.Validation("appointment_date", "appointment date is required")
	}
	if _, err := time.Parse("15:04", a.StartTime); err != nil {
		return apperr.Validation("start_time", "start time must be HH:MM")
	}
	if a.DurationMinutes == 0 {
		a.DurationMinutes = DefaultDurationMinutes
	}
	if a.DurationMinutes < MinDurationMinutes || a.DurationMinutes > MaxDurationMinutes {
		return apperr.Validation("duration_minutes",
			fmt.Sprintf("duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes))
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !a.Status.Valid() {
		return apperr.Validation("status", fmt.Sprintf("invalid status: %s", a.Status))
	}
	return nil
}

// SlotStart combines Date and StartTime into the slot's wall-clock instant,
// in the clinic's local timezone.
func (a *Appointment) SlotStart() time.Time {
	t, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.Local)
}

// SlotEnd is SlotStart plus the booked duration.
func (a *Appointment) SlotEnd() time.Time {
	return a.SlotStart().Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Update carries a partial appointment edit. Nil fields are left untouched.
// Status is not editable here; lifecycle moves go through the action endpoints.
type Update struct {
	DoctorID        *uuid.UUID `json:"doctor_id"`
	Date            *time.Time `json:"appointment_date"`
	StartTime       *string    `json:"start_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	ChiefComplaint  *string    `json:"chief_complaint"`
}

// Apply copies the non-nil fields of u onto a and reports whether the slot
// (doctor, date or time) moved.
func (a *Appointment) Apply(u *Update) bool {
	slotMoved := false
	if u.DoctorID != nil && *u.DoctorID != a.DoctorID {
		a.DoctorID = *u.DoctorID
		slotMoved = true
	}
	if u.Date != nil && !u.Date.Equal(a.Date) {
		a.Date = *u.Date
		slotMoved = true
	}
	if u.StartTime != nil && *u.StartTime != a.StartTime {
		a.StartTime = *u.StartTime
		slotMoved = true
	}
	if u.DurationMinutes != nil {
		a.DurationMinutes = *u.DurationMinutes
	}
	if u.ChiefComplaint != nil {
		a.ChiefComplaint = u.ChiefComplaint
	}
	return slotMoved
}

// CompleteInput carries the clinical outcome recorded when a consultation
// finishes.
type CompleteInput struct {
	Diagnosis      *string    `json:"diagnosis"`
	TreatmentNotes *string    `json:"treatment_notes"`
	FollowupDate   *time.Time `json:"followup_date"`
}

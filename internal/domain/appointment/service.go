package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

// PatientDirectory verifies patient references without coupling to the
// patient package's repository. patient.Service satisfies it.
type PatientDirectory interface {
	Exists(ctx context.Context, clinicID, patientID uuid.UUID) (bool, error)
}

type Service struct {
	appointments Repository
	patients     PatientDirectory
	now          func() time.Time
}

func NewService(appointments Repository, patients PatientDirectory) *Service {
	return &Service{appointments: appointments, patients: patients, now: time.Now}
}

// Book validates and creates the appointment. The slot conflict check runs
// inside the repository's transaction; a losing racer surfaces as a business
// error, same as a plainly taken slot.
func (s *Service) Book(ctx context.Context, clinicID uuid.UUID, a *Appointment) error {
	a.ClinicID = clinicID
	a.Status = StatusScheduled
	if err := a.Validate(); err != nil {
		return err
	}

	ok, err := s.patients.Exists(ctx, clinicID, a.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient")
	}

	if err := s.appointments.CreateExclusive(ctx, a); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return apperr.Business("time slot already booked")
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, clinicID, id)
}

// Reschedule applies a partial edit. Moving the slot re-runs the conflict
// check; editing notes alone does not.
func (s *Service) Reschedule(ctx context.Context, clinicID, id uuid.UUID, u *Update) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, apperr.Business(fmt.Sprintf("cannot reschedule a %s appointment", a.Status))
	}

	slotMoved := a.Apply(u)
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if slotMoved {
		err = s.appointments.UpdateExclusive(ctx, a)
	} else {
		err = s.appointments.Update(ctx, a)
	}
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return nil, apperr.Business("time slot already booked")
		}
		return nil, err
	}
	return a, nil
}

// Start moves a scheduled appointment to in_progress. Allowed from fifteen
// minutes before the slot onwards.
func (s *Service) Start(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(StatusInProgress) {
		return nil, apperr.Business(fmt.Sprintf("cannot start a %s appointment", a.Status))
	}

	now := s.now()
	if now.Before(a.SlotStart().Add(-EarlyStartWindow)) {
		return nil, apperr.Business("too early to start this appointment")
	}

	a.Status = StatusInProgress
	a.StartedAt = &now
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Complete closes an in-progress consultation, recording its outcome.
func (s *Service) Complete(ctx context.Context, clinicID, id uuid.UUID, in *CompleteInput) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(StatusCompleted) {
		return nil, apperr.Business(fmt.Sprintf("cannot complete a %s appointment", a.Status))
	}

	now := s.now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if in != nil {
		if in.Diagnosis != nil {
			a.Diagnosis = in.Diagnosis
		}
		if in.TreatmentNotes != nil {
			a.TreatmentNotes = in.TreatmentNotes
		}
		if in.FollowupDate != nil {
			a.FollowupDate = in.FollowupDate
		}
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel voids a scheduled appointment before its slot time. An appointment
// already underway, or whose slot has passed, cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, apperr.Business(fmt.Sprintf("cannot cancel a %s appointment", a.Status))
	}

	now := s.now()
	if !now.Before(a.SlotStart()) {
		return nil, apperr.Business("appointment time has passed; mark it missed instead")
	}

	a.Status = StatusCancelled
	a.CancelledAt = &now
	if reason != "" {
		a.CancelReason = &reason
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// MarkMissed records a no-show. Only valid once the slot time has passed.
func (s *Service) MarkMissed(ctx context.Context, clinicID, id uuid.UUID, reason string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(StatusMissed) {
		return nil, apperr.Business(fmt.Sprintf("cannot mark a %s appointment as missed", a.Status))
	}

	now := s.now()
	if now.Before(a.SlotStart()) {
		return nil, apperr.Business("appointment time has not passed yet")
	}

	a.Status = StatusMissed
	a.MissedAt = &now
	if reason != "" {
		a.MissReason = &reason
	}
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Rebook returns a cancelled or missed appointment to the schedule, re-running
// the slot conflict check since the slot may have been taken in the meantime.
func (s *Service) Rebook(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransition(StatusScheduled) {
		return nil, apperr.Business(fmt.Sprintf("cannot rebook a %s appointment", a.Status))
	}

	a.Status = StatusScheduled
	a.CancelReason = nil
	a.CancelledAt = nil
	a.MissReason = nil
	a.MissedAt = nil
	if err := s.appointments.UpdateExclusive(ctx, a); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return nil, apperr.Business("time slot already booked")
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) DoctorSchedule(ctx context.Context, clinicID, doctorID uuid.UUID, date time.Time) ([]*Appointment, error) {
	return s.appointments.ListByDoctorDate(ctx, clinicID, doctorID, date)
}

func (s *Service) PatientHistory(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, clinicID, patientID, limit, offset)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, clinicID, f, limit, offset)
}

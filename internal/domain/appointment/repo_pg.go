package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
	"github.com/ayurclinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const apptCols = `id, clinic_id, patient_id, doctor_id, appointment_date, start_time,
	duration_minutes, status, chief_complaint, diagnosis, treatment_notes,
	followup_date, cancel_reason, miss_reason, started_at, completed_at, cancelled_at,
	missed_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ClinicID, &a.PatientID, &a.DoctorID, &a.Date, &a.StartTime,
		&a.DurationMinutes, &a.Status, &a.ChiefComplaint, &a.Diagnosis, &a.TreatmentNotes,
		&a.FollowupDate, &a.CancelReason, &a.MissReason, &a.StartedAt, &a.CompletedAt, &a.CancelledAt,
		&a.MissedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "scan appointment")
	}
	return &a, nil
}

// slotTaken checks for a live appointment occupying the same slot. Cancelled
// and missed slots do not block.
func (r *repoPG) slotTaken(ctx context.Context, a *Appointment) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE clinic_id = $1 AND doctor_id = $2
			  AND appointment_date = $3 AND start_time = $4
			  AND status NOT IN ('cancelled', 'missed')
			  AND id <> $5
		)`, a.ClinicID, a.DoctorID, a.Date, a.StartTime, a.ID).Scan(&taken)
	if err != nil {
		return false, apperr.Wrap(err, "check slot")
	}
	return taken, nil
}

func (r *repoPG) CreateExclusive(ctx context.Context, a *Appointment) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		a.ID = uuid.New()
		taken, err := r.slotTaken(ctx, a)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("time slot already booked")
		}

		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO appointments (id, clinic_id, patient_id, doctor_id,
				appointment_date, start_time, duration_minutes, status, chief_complaint)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			a.ID, a.ClinicID, a.PatientID, a.DoctorID,
			a.Date, a.StartTime, a.DurationMinutes, a.Status, a.ChiefComplaint)
		if db.UniqueViolation(err) {
			return apperr.Conflict("time slot already booked")
		}
		if err != nil {
			return apperr.Wrap(err, "insert appointment")
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET doctor_id=$3, appointment_date=$4, start_time=$5,
			duration_minutes=$6, status=$7, chief_complaint=$8, diagnosis=$9,
			treatment_notes=$10, followup_date=$11, cancel_reason=$12, miss_reason=$13,
			started_at=$14, completed_at=$15, cancelled_at=$16, missed_at=$17,
			updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		a.ClinicID, a.ID, a.DoctorID, a.Date, a.StartTime,
		a.DurationMinutes, a.Status, a.ChiefComplaint, a.Diagnosis,
		a.TreatmentNotes, a.FollowupDate, a.CancelReason, a.MissReason,
		a.StartedAt, a.CompletedAt, a.CancelledAt, a.MissedAt)
	if db.UniqueViolation(err) {
		return apperr.Conflict("time slot already booked")
	}
	if err != nil {
		return apperr.Wrap(err, "update appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment")
	}
	return nil
}

func (r *repoPG) UpdateExclusive(ctx context.Context, a *Appointment) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		taken, err := r.slotTaken(ctx, a)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("time slot already booked")
		}
		return r.Update(ctx, a)
	})
}

func (r *repoPG) ListByDoctorDate(ctx context.Context, clinicID, doctorID uuid.UUID, date time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE clinic_id = $1 AND doctor_id = $2 AND appointment_date = $3
		ORDER BY start_time`, clinicID, doctorID, date)
	if err != nil {
		return nil, apperr.Wrap(err, "list appointments by doctor")
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, clinicID, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND patient_id = $2`,
		clinicID, patientID).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count appointments")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE clinic_id = $1 AND patient_id = $2
		ORDER BY appointment_date DESC, start_time DESC
		LIMIT $3 OFFSET $4`, clinicID, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list appointments by patient")
	}
	defer rows.Close()
	return collectAppts(rows, total)
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := "clinic_id = $1"
	args := []interface{}{clinicID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where += fmt.Sprintf(" AND "+cond, len(args))
	}

	if f.DoctorID != uuid.Nil {
		add("doctor_id = $%d", f.DoctorID)
	}
	if f.PatientID != uuid.Nil {
		add("patient_id = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.DateFrom.IsZero() {
		add("appointment_date >= $%d", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("appointment_date <= $%d", f.DateTo)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count appointments")
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT `+apptCols+` FROM appointments WHERE `+where+`
		ORDER BY appointment_date DESC, start_time DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list appointments")
	}
	defer rows.Close()
	return collectAppts(rows, total)
}

func collectAppts(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

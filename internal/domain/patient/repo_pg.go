package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
	"github.com/ayurclinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const patientCols = `id, clinic_id, patient_code, first_name, last_name,
	date_of_birth, age, gender, phone, email, address, dosha_type,
	allergies, medical_history, emergency_contact_name, emergency_contact_phone,
	active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.PatientCode, &p.FirstName, &p.LastName,
		&p.DateOfBirth, &p.Age, &p.Gender, &p.Phone, &p.Email, &p.Address, &p.DoshaType,
		&p.Allergies, &p.MedicalHistory, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "scan patient")
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		p.ID = uuid.New()
		p.Active = true

		// Next sequence for the clinic's patient code. The unique index on
		// (clinic_id, patient_code) catches concurrent racers; callers retry
		// on conflict.
		var seq int
		err := r.conn(ctx).QueryRow(ctx, `
			SELECT COALESCE(MAX(SUBSTRING(patient_code FROM 5)::int), 0) + 1
			FROM patients WHERE clinic_id = $1`, p.ClinicID).Scan(&seq)
		if err != nil {
			return apperr.Wrap(err, "next patient code")
		}
		p.PatientCode = FormatCode(seq)

		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO patients (id, clinic_id, patient_code, first_name, last_name,
				date_of_birth, age, gender, phone, email, address, dosha_type,
				allergies, medical_history, emergency_contact_name, emergency_contact_phone, active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
			p.ID, p.ClinicID, p.PatientCode, p.FirstName, p.LastName,
			p.DateOfBirth, p.Age, p.Gender, p.Phone, p.Email, p.Address, p.DoshaType,
			p.Allergies, p.MedicalHistory, p.EmergencyContactName, p.EmergencyContactPhone, p.Active)
		if db.UniqueViolation(err) {
			return apperr.Conflict("duplicate patient")
		}
		if err != nil {
			return apperr.Wrap(err, "insert patient")
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *repoPG) GetByPhone(ctx context.Context, clinicID uuid.UUID, phone string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE clinic_id = $1 AND phone = $2 AND active`, clinicID, phone))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET first_name=$3, last_name=$4, date_of_birth=$5, age=$6,
			gender=$7, phone=$8, email=$9, address=$10, dosha_type=$11,
			allergies=$12, medical_history=$13, emergency_contact_name=$14,
			emergency_contact_phone=$15, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		p.ClinicID, p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Age,
		p.Gender, p.Phone, p.Email, p.Address, p.DoshaType,
		p.Allergies, p.MedicalHistory, p.EmergencyContactName, p.EmergencyContactPhone)
	if db.UniqueViolation(err) {
		return apperr.Conflict("duplicate patient")
	}
	if err != nil {
		return apperr.Wrap(err, "update patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *repoPG) Deactivate(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET active = FALSE, updated_at = NOW()
		WHERE clinic_id = $1 AND id = $2 AND active`, clinicID, id)
	if err != nil {
		return apperr.Wrap(err, "deactivate patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE clinic_id = $1 AND active`, clinicID).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count patients")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patients
		WHERE clinic_id = $1 AND active
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, clinicID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list patients")
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) Search(ctx context.Context, clinicID uuid.UUID, query string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + query + "%"
	const where = `clinic_id = $1 AND active AND
		(first_name ILIKE $2 OR last_name ILIKE $2 OR phone LIKE $2 OR patient_code ILIKE $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE `+where, clinicID, pattern).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count patients")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patients WHERE `+where+`
		ORDER BY first_name, last_name LIMIT $3 OFFSET $4`, clinicID, pattern, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "search patients")
	}
	defer rows.Close()
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]*Patient, int, error) {
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

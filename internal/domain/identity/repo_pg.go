package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
	"github.com/ayurclinic/clinic/internal/platform/db"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const userCols = `id, clinic_id, email, password_hash, full_name, role, active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.ClinicID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "scan user")
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	u.Active = true
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, clinic_id, email, password_hash, full_name, role, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.ClinicID, u.Email, u.PasswordHash, u.FullName, u.Role, u.Active)
	if db.UniqueViolation(err) {
		return apperr.Conflict("email already in use")
	}
	if err != nil {
		return apperr.Wrap(err, "insert user")
	}
	return nil
}

func (r *userRepoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1) AND active`, email))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET full_name=$3, role=$4, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		u.ClinicID, u.ID, u.FullName, u.Role)
	if err != nil {
		return apperr.Wrap(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, clinicID, id uuid.UUID, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET password_hash=$3, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`, clinicID, id, hash)
	if err != nil {
		return apperr.Wrap(err, "update password")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (r *userRepoPG) Deactivate(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET active = FALSE, updated_at = NOW()
		WHERE clinic_id = $1 AND id = $2 AND active`, clinicID, id)
	if err != nil {
		return apperr.Wrap(err, "deactivate user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE clinic_id = $1 AND active`, clinicID).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count users")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM users WHERE clinic_id = $1 AND active
		ORDER BY full_name LIMIT $2 OFFSET $3`, clinicID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list users")
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, nil
}

type clinicRepoPG struct{ pool *pgxpool.Pool }

func NewClinicRepoPG(pool *pgxpool.Pool) ClinicRepository { return &clinicRepoPG{pool: pool} }

func (r *clinicRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const clinicCols = `id, name, address, phone, email, active, created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("clinic")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "scan clinic")
	}
	return &c, nil
}

func (r *clinicRepoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	c.Active = true
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinics (id, name, address, phone, email, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.Address, c.Phone, c.Email, c.Active)
	if err != nil {
		return apperr.Wrap(err, "insert clinic")
	}
	return nil
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return scanClinic(r.conn(ctx).QueryRow(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
}

func (r *clinicRepoPG) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinics WHERE active`).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count clinics")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+clinicCols+` FROM clinics WHERE active
		ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list clinics")
	}
	defer rows.Close()

	var items []*Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

package medicine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
	"github.com/ayurclinic/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const medicineCols = `id, clinic_id, name, generic_name, category, manufacturer,
	batch_number, unit, quantity_stock, reorder_level, price_per_unit,
	manufacturing_date, expiry_date, active, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.ClinicID, &m.Name, &m.GenericName, &m.Category, &m.Manufacturer,
		&m.BatchNumber, &m.Unit, &m.QuantityStock, &m.ReorderLevel, &m.PricePerUnit,
		&m.ManufacturingDate, &m.ExpiryDate, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medicine")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "scan medicine")
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Medicine, openingMovement *StockMovement) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		m.ID = uuid.New()
		m.Active = true
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO medicines (id, clinic_id, name, generic_name, category, manufacturer,
				batch_number, unit, quantity_stock, reorder_level, price_per_unit,
				manufacturing_date, expiry_date, active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			m.ID, m.ClinicID, m.Name, m.GenericName, m.Category, m.Manufacturer,
			m.BatchNumber, m.Unit, m.QuantityStock, m.ReorderLevel, m.PricePerUnit,
			m.ManufacturingDate, m.ExpiryDate, m.Active)
		if err != nil {
			return apperr.Wrap(err, "insert medicine")
		}
		if openingMovement != nil {
			openingMovement.ClinicID = m.ClinicID
			openingMovement.MedicineID = m.ID
			return r.insertMovement(ctx, openingMovement)
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *repoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET name=$3, generic_name=$4, category=$5, manufacturer=$6,
			batch_number=$7, unit=$8, reorder_level=$9, price_per_unit=$10,
			manufacturing_date=$11, expiry_date=$12, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		m.ClinicID, m.ID, m.Name, m.GenericName, m.Category, m.Manufacturer,
		m.BatchNumber, m.Unit, m.ReorderLevel, m.PricePerUnit,
		m.ManufacturingDate, m.ExpiryDate)
	if err != nil {
		return apperr.Wrap(err, "update medicine")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine")
	}
	return nil
}

func (r *repoPG) Deactivate(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET active = FALSE, updated_at = NOW()
		WHERE clinic_id = $1 AND id = $2 AND active`, clinicID, id)
	if err != nil {
		return apperr.Wrap(err, "deactivate medicine")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Medicine, int, error) {
	where := "clinic_id = $1"
	args := []interface{}{clinicID}
	if !f.IncludeInact {
		where += " AND active"
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR generic_name ILIKE $%d)", len(args), len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.LowStock {
		where += " AND quantity_stock <= reorder_level"
	}
	if !f.ExpiringBy.IsZero() {
		args = append(args, f.ExpiringBy)
		where += fmt.Sprintf(" AND expiry_date IS NOT NULL AND expiry_date <= $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medicines WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count medicines")
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT `+medicineCols+` FROM medicines WHERE `+where+`
		ORDER BY name LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list medicines")
	}
	defer rows.Close()

	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *repoPG) ApplyMovement(ctx context.Context, mv *StockMovement, delta int) (*StockLevel, error) {
	var level StockLevel
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		var newStock int
		var err error
		if delta >= 0 {
			err = r.conn(ctx).QueryRow(ctx, `
				UPDATE medicines SET quantity_stock = quantity_stock + $3, updated_at = NOW()
				WHERE clinic_id = $1 AND id = $2 AND active
				RETURNING quantity_stock`,
				mv.ClinicID, mv.MedicineID, delta).Scan(&newStock)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("medicine")
			}
			if err != nil {
				return apperr.Wrap(err, "add stock")
			}
		} else {
			// The stock guard keeps quantity from going negative; the CHECK
			// constraint on the table is the backstop.
			err = r.conn(ctx).QueryRow(ctx, `
				UPDATE medicines SET quantity_stock = quantity_stock - $3, updated_at = NOW()
				WHERE clinic_id = $1 AND id = $2 AND active AND quantity_stock >= $3
				RETURNING quantity_stock`,
				mv.ClinicID, mv.MedicineID, -delta).Scan(&newStock)
			if errors.Is(err, pgx.ErrNoRows) {
				if _, getErr := r.GetByID(ctx, mv.ClinicID, mv.MedicineID); getErr != nil {
					return getErr
				}
				return apperr.Conflict("insufficient stock")
			}
			if err != nil {
				return apperr.Wrap(err, "remove stock")
			}
		}
		level = StockLevel{Previous: newStock - delta, Current: newStock}

		return r.insertMovement(ctx, mv)
	})
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *repoPG) insertMovement(ctx context.Context, mv *StockMovement) error {
	mv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_movements (id, clinic_id, medicine_id, movement_type,
			quantity, reason, notes, reference_id, performed_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		mv.ID, mv.ClinicID, mv.MedicineID, mv.Type,
		mv.Quantity, mv.Reason, mv.Notes, mv.ReferenceID, mv.PerformedBy)
	if err != nil {
		return apperr.Wrap(err, "insert stock movement")
	}
	return nil
}

const movementCols = `id, clinic_id, medicine_id, movement_type, quantity,
	reason, notes, reference_id, performed_by, created_at`

func (r *repoPG) ListMovements(ctx context.Context, clinicID, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_movements WHERE clinic_id = $1 AND medicine_id = $2`,
		clinicID, medicineID).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count stock movements")
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+movementCols+` FROM stock_movements
		WHERE clinic_id = $1 AND medicine_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, clinicID, medicineID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list stock movements")
	}
	defer rows.Close()

	var items []*StockMovement
	for rows.Next() {
		var mv StockMovement
		if err := rows.Scan(&mv.ID, &mv.ClinicID, &mv.MedicineID, &mv.Type, &mv.Quantity,
			&mv.Reason, &mv.Notes, &mv.ReferenceID, &mv.PerformedBy, &mv.CreatedAt); err != nil {
			return nil, 0, apperr.Wrap(err, "scan stock movement")
		}
		items = append(items, &mv)
	}
	return items, total, nil
}

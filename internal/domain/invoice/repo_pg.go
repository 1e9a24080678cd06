package invoice

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

const invoiceCols = `id, clinic_id, patient_id, appointment_id, invoice_number,
	invoice_date, due_date, consultation_fee, additional_charges, discount_amount,
	tax_amount, total_amount, paid_amount, status, payment_method, notes,
	created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ClinicID, &inv.PatientID, &inv.AppointmentID, &inv.InvoiceNumber,
		&inv.InvoiceDate, &inv.DueDate, &inv.ConsultationFee, &inv.AdditionalCharges, &inv.DiscountAmount,
		&inv.TaxAmount, &inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.PaymentMethod, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("invoice")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "scan invoice")
	}
	return &inv, nil
}

func (r *repoPG) NextNumber(ctx context.Context, clinicID uuid.UUID, year int, month time.Month) (int, error) {
	prefix := fmt.Sprintf("INV-%04d%02d-", year, month)
	var seq int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(SUBSTRING(invoice_number FROM 12)::int), 0) + 1
		FROM invoices WHERE clinic_id = $1 AND invoice_number LIKE $2`,
		clinicID, prefix+"%").Scan(&seq)
	if err != nil {
		return 0, apperr.Wrap(err, "next invoice number")
	}
	return seq, nil
}

func (r *repoPG) Insert(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoices (id, clinic_id, patient_id, appointment_id, invoice_number,
			invoice_date, due_date, consultation_fee, additional_charges, discount_amount,
			tax_amount, total_amount, paid_amount, status, payment_method, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		inv.ID, inv.ClinicID, inv.PatientID, inv.AppointmentID, inv.InvoiceNumber,
		inv.InvoiceDate, inv.DueDate, inv.ConsultationFee, inv.AdditionalCharges, inv.DiscountAmount,
		inv.TaxAmount, inv.TotalAmount, inv.PaidAmount, inv.Status, inv.PaymentMethod, inv.Notes)
	if db.UniqueViolation(err) {
		return apperr.Conflict("duplicate invoice number")
	}
	if err != nil {
		return apperr.Wrap(err, "insert invoice")
	}

	for _, it := range inv.Items {
		it.ID = uuid.New()
		it.InvoiceID = inv.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, medicine_id, item_type, item_name,
				description, quantity, unit, price_per_unit, discount, tax_percentage, total_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			it.ID, it.InvoiceID, it.MedicineID, it.ItemType, it.ItemName,
			it.Description, it.Quantity, it.Unit, it.PricePerUnit, it.Discount, it.TaxPercentage, it.TotalPrice)
		if err != nil {
			return apperr.Wrap(err, "insert invoice item")
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE clinic_id = $1 AND id = $2`, clinicID, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, medicine_id, item_type, item_name, description,
			quantity, unit, price_per_unit, discount, tax_percentage, total_price
		FROM invoice_items WHERE invoice_id = $1 ORDER BY item_name`, inv.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "list invoice items")
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.MedicineID, &it.ItemType, &it.ItemName, &it.Description,
			&it.Quantity, &it.Unit, &it.PricePerUnit, &it.Discount, &it.TaxPercentage, &it.TotalPrice); err != nil {
			return nil, apperr.Wrap(err, "scan invoice item")
		}
		inv.Items = append(inv.Items, &it)
	}
	return inv, nil
}

func (r *repoPG) List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Invoice, int, error) {
	where := "clinic_id = $1"
	args := []interface{}{clinicID}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.PatientID != uuid.Nil {
		add("patient_id = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if !f.DateFrom.IsZero() {
		add("invoice_date >= $%d", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("invoice_date <= $%d", f.DateTo)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(err, "count invoices")
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT `+invoiceCols+` FROM invoices WHERE `+where+`
		ORDER BY invoice_date DESC, invoice_number DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, apperr.Wrap(err, "list invoices")
	}
	defer rows.Close()

	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, nil
}

func (r *repoPG) UpdatePayment(ctx context.Context, inv *Invoice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoices SET paid_amount=$3, status=$4, payment_method=$5, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2`,
		inv.ClinicID, inv.ID, inv.PaidAmount, inv.Status, inv.PaymentMethod)
	if err != nil {
		return apperr.Wrap(err, "update invoice payment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice")
	}
	return nil
}

package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/domain/medicine"
	"github.com/ayurclinic/clinic/internal/platform/apperr"
	"github.com/ayurclinic/clinic/internal/platform/db"
)

// PatientDirectory verifies patient references. patient.Service satisfies it.
type PatientDirectory interface {
	Exists(ctx context.Context, clinicID, patientID uuid.UUID) (bool, error)
}

// StockAdjuster dispenses inventory for medicine lines. medicine.Repository
// satisfies it; inside the creation transaction its movement joins our tx.
type StockAdjuster interface {
	ApplyMovement(ctx context.Context, mv *medicine.StockMovement, delta int) (*medicine.StockLevel, error)
}

type Service struct {
	invoices Repository
	patients PatientDirectory
	stock    StockAdjuster
	tx       db.TxRunner
	now      func() time.Time
}

func NewService(invoices Repository, patients PatientDirectory, stock StockAdjuster, tx db.TxRunner) *Service {
	return &Service{invoices: invoices, patients: patients, stock: stock, tx: tx, now: time.Now}
}

// Create raises an invoice. The invoice number, header, line items and the
// stock decrement for every medicine line are written in one transaction; if
// any medicine lacks stock, nothing is billed and nothing is dispensed.
func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, inv *Invoice, performedBy *uuid.UUID) error {
	inv.ClinicID = clinicID
	if err := inv.Validate(); err != nil {
		return err
	}

	ok, err := s.patients.Exists(ctx, clinicID, inv.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient")
	}

	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = s.now()
	}
	inv.ComputeTotals()
	inv.PaidAmount = 0
	inv.Status = StatusPending

	err = s.tx.RunTx(ctx, func(ctx context.Context) error {
		year, month, _ := inv.InvoiceDate.Date()
		seq, err := s.invoices.NextNumber(ctx, clinicID, year, month)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = FormatNumber(year, month, seq)

		if err := s.invoices.Insert(ctx, inv); err != nil {
			return err
		}

		reason := "invoice " + inv.InvoiceNumber
		for _, it := range inv.Items {
			if it.ItemType != ItemMedicine || it.MedicineID == nil {
				continue
			}
			mv := &medicine.StockMovement{
				ClinicID:    clinicID,
				MedicineID:  *it.MedicineID,
				Type:        medicine.MovementOut,
				Quantity:    it.Quantity,
				Reason:      &reason,
				ReferenceID: &inv.ID,
				PerformedBy: performedBy,
			}
			if _, err := s.stock.ApplyMovement(ctx, mv, -it.Quantity); err != nil {
				if apperr.IsKind(err, apperr.KindConflict) {
					return apperr.Business(fmt.Sprintf("insufficient stock for %s", it.ItemName))
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return apperr.Business("invoice numbering conflict, retry")
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, clinicID, id)
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, f Filter, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.List(ctx, clinicID, f, limit, offset)
}

// RecordPayment applies a payment. The amount must be positive and cannot
// exceed the outstanding balance; covering the balance settles the invoice.
func (s *Service) RecordPayment(ctx context.Context, clinicID, id uuid.UUID, amount float64, method string) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case StatusPaid:
		return nil, apperr.Business("invoice is already paid")
	case StatusCancelled:
		return nil, apperr.Business("invoice is cancelled")
	}
	if amount <= 0 {
		return nil, apperr.Business("payment amount must be positive")
	}
	if amount > inv.Balance() {
		return nil, apperr.Business("payment exceeds outstanding balance")
	}

	inv.PaidAmount += amount
	if method != "" {
		inv.PaymentMethod = &method
	}
	if inv.Balance() <= 0 {
		inv.Status = StatusPaid
	} else {
		inv.Status = StatusPartial
	}

	if err := s.invoices.UpdatePayment(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Cancel voids an invoice. Paid invoices are immutable; partially paid ones
// can still be cancelled.
func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case StatusPaid:
		return nil, apperr.Business("paid invoices cannot be cancelled")
	case StatusCancelled:
		return nil, apperr.Business("invoice is already cancelled")
	}

	inv.Status = StatusCancelled
	if err := s.invoices.UpdatePayment(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

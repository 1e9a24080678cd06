package invoice

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

type ItemType string

const (
	ItemMedicine ItemType = "medicine"
	ItemService  ItemType = "service"
	ItemOther    ItemType = "other"
)

// Invoice is a bill raised against a patient. TotalAmount is always computed
// server-side from the fee, the line items and the invoice-level adjustments.
type Invoice struct {
	ID                uuid.UUID  `json:"id"`
	ClinicID          uuid.UUID  `json:"clinic_id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	AppointmentID     *uuid.UUID `json:"appointment_id,omitempty"`
	InvoiceNumber     string     `json:"invoice_number"`
	InvoiceDate       time.Time  `json:"invoice_date"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	ConsultationFee   float64    `json:"consultation_fee"`
	AdditionalCharges float64    `json:"additional_charges"`
	DiscountAmount    float64    `json:"discount_amount"`
	TaxAmount         float64    `json:"tax_amount"`
	TotalAmount       float64    `json:"total_amount"`
	PaidAmount        float64    `json:"paid_amount"`
	Status            Status     `json:"status"`
	PaymentMethod     *string    `json:"payment_method,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Items             []*Item    `json:"items"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Item is one invoice line. Medicine lines reference the inventory item they
// dispense; service and other lines are free-form.
type Item struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	MedicineID    *uuid.UUID `json:"medicine_id,omitempty"`
	ItemType      ItemType   `json:"item_type"`
	ItemName      string     `json:"item_name"`
	Description   *string    `json:"description,omitempty"`
	Quantity      int        `json:"quantity"`
	Unit          *string    `json:"unit,omitempty"`
	PricePerUnit  float64    `json:"price_per_unit"`
	Discount      float64    `json:"discount"`
	TaxPercentage float64    `json:"tax_percentage"`
	TotalPrice    float64    `json:"total_price"`
}

// Compute derives the line total: quantity times unit price, less the line
// discount, plus the line tax on that subtotal.
func (it *Item) Compute() {
	subtotal := float64(it.Quantity)*it.PricePerUnit - it.Discount
	tax := subtotal * it.TaxPercentage / 100
	it.TotalPrice = subtotal + tax
}

// ComputeTotals recomputes every line and the invoice total.
func (inv *Invoice) ComputeTotals() {
	var lines float64
	for _, it := range inv.Items {
		it.Compute()
		lines += it.TotalPrice
	}
	inv.TotalAmount = inv.ConsultationFee + lines + inv.AdditionalCharges -
		inv.DiscountAmount + inv.TaxAmount
}

// Balance is the amount still owed.
func (inv *Invoice) Balance() float64 {
	return inv.TotalAmount - inv.PaidAmount
}

// CanBePaid reports whether further payments may be recorded.
func (inv *Invoice) CanBePaid() bool {
	return inv.Status != StatusPaid && inv.Status != StatusCancelled
}

// Validate checks the invoice before any database work.
func (inv *Invoice) Validate() error {
	if inv.PatientID == uuid.Nil {
		return apperr.Validation("patient_id", "patient_id is required")
	}
	if inv.ConsultationFee < 0 {
		return apperr.Validation("consultation_fee", "consultation fee cannot be negative")
	}
	if inv.AdditionalCharges < 0 {
		return apperr.Validation("additional_charges", "additional charges cannot be negative")
	}
	if inv.DiscountAmount < 0 {
		return apperr.Validation("discount_amount", "discount cannot be negative")
	}
	if inv.TaxAmount < 0 {
		return apperr.Validation("tax_amount", "tax cannot be negative")
	}
	for i, it := range inv.Items {
		if err := it.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (it *Item) validate(i int) error {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
	if it.ItemName == "" {
		return apperr.Validation(field("item_name"), "item name is required")
	}
	switch it.ItemType {
	case ItemMedicine, ItemService, ItemOther:
	case "":
		it.ItemType = ItemOther
	default:
		return apperr.Validation(field("item_type"), fmt.Sprintf("invalid item type: %s", it.ItemType))
	}
	if it.ItemType == ItemMedicine && it.MedicineID == nil {
		return apperr.Validation(field("medicine_id"), "medicine lines must reference a medicine")
	}
	if it.Quantity <= 0 {
		return apperr.Validation(field("quantity"), "quantity must be positive")
	}
	if it.PricePerUnit < 0 {
		return apperr.Validation(field("price_per_unit"), "price cannot be negative")
	}
	if it.Discount < 0 {
		return apperr.Validation(field("discount"), "discount cannot be negative")
	}
	if it.Discount > float64(it.Quantity)*it.PricePerUnit {
		return apperr.Validation(field("discount"), "discount cannot exceed the line amount")
	}
	if it.TaxPercentage < 0 || it.TaxPercentage > 100 {
		return apperr.Validation(field("tax_percentage"), "tax percentage must be between 0 and 100")
	}
	return nil
}

// FormatNumber renders the invoice number for a month bucket and sequence,
// INV-202608-00042 style.
func FormatNumber(year int, month time.Month, seq int) string {
	return fmt.Sprintf("INV-%04d%02d-%05d", year, month, seq)
}

// Filter narrows invoice listings.
type Filter struct {
	PatientID uuid.UUID
	Status    Status
	DateFrom  time.Time
	DateTo    time.Time
}

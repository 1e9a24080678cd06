package medicine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

// Medicine is an inventory item. QuantityStock is only ever changed through
// stock movements so the audit trail stays complete.
type Medicine struct {
	ID                uuid.UUID  `json:"id"`
	ClinicID          uuid.UUID  `json:"clinic_id"`
	Name              string     `json:"name"`
	GenericName       *string    `json:"generic_name,omitempty"`
	Category          *string    `json:"category,omitempty"`
	Manufacturer      *string    `json:"manufacturer,omitempty"`
	BatchNumber       *string    `json:"batch_number,omitempty"`
	Unit              string     `json:"unit"`
	QuantityStock     int        `json:"quantity_stock"`
	ReorderLevel      int        `json:"reorder_level"`
	PricePerUnit      float64    `json:"price_per_unit"`
	ManufacturingDate *time.Time `json:"manufacturing_date,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Validate checks the medicine before any database work.
func (m *Medicine) Validate() error {
	if m.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	if m.QuantityStock < 0 {
		return apperr.Validation("quantity_stock", "stock cannot be negative")
	}
	if m.ReorderLevel < 0 {
		return apperr.Validation("reorder_level", "reorder level cannot be negative")
	}
	if m.PricePerUnit < 0 {
		return apperr.Validation("price_per_unit", "price cannot be negative")
	}
	if m.ManufacturingDate != nil && m.ExpiryDate != nil && m.ExpiryDate.Before(*m.ManufacturingDate) {
		return apperr.Validation("expiry_date", "expiry date cannot precede manufacturing date")
	}
	return nil
}

// LowStock reports whether the item is at or below its reorder level.
func (m *Medicine) LowStock() bool {
	return m.QuantityStock <= m.ReorderLevel
}

// Expired reports whether the item is past its expiry date.
func (m *Medicine) Expired(now time.Time) bool {
	return m.ExpiryDate != nil && m.ExpiryDate.Before(now)
}

// Update carries a partial medicine edit. Stock is excluded; it moves only
// through movements.
type Update struct {
	Name              *string    `json:"name"`
	GenericName       *string    `json:"generic_name"`
	Category          *string    `json:"category"`
	Manufacturer      *string    `json:"manufacturer"`
	BatchNumber       *string    `json:"batch_number"`
	Unit              *string    `json:"unit"`
	ReorderLevel      *int       `json:"reorder_level"`
	PricePerUnit      *float64   `json:"price_per_unit"`
	ManufacturingDate *time.Time `json:"manufacturing_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`
}

func (m *Medicine) Apply(u *Update) {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.GenericName != nil {
		m.GenericName = u.GenericName
	}
	if u.Category != nil {
		m.Category = u.Category
	}
	if u.Manufacturer != nil {
		m.Manufacturer = u.Manufacturer
	}
	if u.BatchNumber != nil {
		m.BatchNumber = u.BatchNumber
	}
	if u.Unit != nil {
		m.Unit = *u.Unit
	}
	if u.ReorderLevel != nil {
		m.ReorderLevel = *u.ReorderLevel
	}
	if u.PricePerUnit != nil {
		m.PricePerUnit = *u.PricePerUnit
	}
	if u.ManufacturingDate != nil {
		m.ManufacturingDate = u.ManufacturingDate
	}
	if u.ExpiryDate != nil {
		m.ExpiryDate = u.ExpiryDate
	}
}

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// StockMovement is one audited stock change. Quantity is always positive;
// the type carries the direction.
type StockMovement struct {
	ID          uuid.UUID    `json:"id"`
	ClinicID    uuid.UUID    `json:"clinic_id"`
	MedicineID  uuid.UUID    `json:"medicine_id"`
	Type        MovementType `json:"movement_type"`
	Quantity    int          `json:"quantity"`
	Reason      *string      `json:"reason,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
	ReferenceID *uuid.UUID   `json:"reference_id,omitempty"`
	PerformedBy *uuid.UUID   `json:"performed_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (mv *StockMovement) Validate() error {
	if mv.MedicineID == uuid.Nil {
		return apperr.Validation("medicine_id", "medicine_id is required")
	}
	if !mv.Type.Valid() {
		return apperr.Validation("movement_type", fmt.Sprintf("invalid movement type: %s", mv.Type))
	}
	if mv.Quantity <= 0 {
		return apperr.Validation("quantity", "quantity must be positive")
	}
	return nil
}

// StockLevel reports the stock before and after a movement.
type StockLevel struct {
	Previous int `json:"previous_stock"`
	Current  int `json:"current_stock"`
}

// Filter narrows medicine listings.
type Filter struct {
	Query        string
	Category     string
	LowStock     bool
	ExpiringBy   time.Time
	IncludeInact bool
}

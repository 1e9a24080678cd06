package medicine

import (
	"testing"
	"time"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMedicineValidate(t *testing.T) {
	m := &Medicine{Name: "Brahmi", Unit: "tablet", QuantityStock: 10, PricePerUnit: 2.5}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid medicine rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Medicine)
	}{
		{"missing name", func(m *Medicine) { m.Name = "" }},
		{"negative stock", func(m *Medicine) { m.QuantityStock = -1 }},
		{"negative reorder level", func(m *Medicine) { m.ReorderLevel = -1 }},
		{"negative price", func(m *Medicine) { m.PricePerUnit = -0.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &Medicine{Name: "Brahmi", Unit: "tablet"}
			tc.mutate(m)
			if err := m.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMovementTypeValid(t *testing.T) {
	for _, mt := range []MovementType{MovementIn, MovementOut, MovementAdjustment} {
		if !mt.Valid() {
			t.Errorf("%s should be valid", mt)
		}
	}
	if MovementType("transfer").Valid() {
		t.Error("unknown type accepted")
	}
}

func TestMovementValidate(t *testing.T) {
	mv := &StockMovement{Type: MovementIn, Quantity: 0}
	if err := mv.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing medicine, got %v", err)
	}
}

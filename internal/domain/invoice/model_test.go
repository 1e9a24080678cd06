package invoice

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayurclinic/clinic/internal/platform/apperr"
)

func TestItemCompute(t *testing.T) {
	it := &Item{Quantity: 2, PricePerUnit: 100, TaxPercentage: 10}
	it.Compute()
	if it.TotalPrice != 220 {
		t.Fatalf("line total = %v, want 220", it.TotalPrice)
	}
}

func TestItemComputeWithDiscount(t *testing.T) {
	it := &Item{Quantity: 3, PricePerUnit: 50, Discount: 30, TaxPercentage: 5}
	it.Compute()
	// (3*50 - 30) * 1.05 = 126
	if it.TotalPrice != 126 {
		t.Fatalf("line total = %v, want 126", it.TotalPrice)
	}
}

func TestComputeTotals(t *testing.T) {
	inv := &Invoice{
		ConsultationFee: 500,
		Items: []*Item{
			{Quantity: 2, PricePerUnit: 100, TaxPercentage: 10},
		},
	}
	inv.ComputeTotals()
	if inv.TotalAmount != 720 {
		t.Fatalf("total = %v, want 720", inv.TotalAmount)
	}
}

func TestComputeTotalsWithAdjustments(t *testing.T) {
	inv := &Invoice{
		ConsultationFee:   300,
		AdditionalCharges: 50,
		DiscountAmount:    100,
		TaxAmount:         25,
		Items: []*Item{
			{Quantity: 1, PricePerUnit: 200},
			{Quantity: 4, PricePerUnit: 25},
		},
	}
	inv.ComputeTotals()
	// 300 + (200 + 100) + 50 - 100 + 25 = 575
	if inv.TotalAmount != 575 {
		t.Fatalf("total = %v, want 575", inv.TotalAmount)
	}
}

func TestBalance(t *testing.T) {
	inv := &Invoice{TotalAmount: 720, PaidAmount: 300}
	if got := inv.Balance(); got != 420 {
		t.Fatalf("balance = %v", got)
	}
}

func TestCanBePaid(t *testing.T) {
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusPartial, true},
		{StatusPaid, false},
		{StatusCancelled, false},
	}
	for _, tc := range cases {
		inv := &Invoice{Status: tc.status}
		if got := inv.CanBePaid(); got != tc.want {
			t.Errorf("CanBePaid(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestInvoiceValidate(t *testing.T) {
	medID := uuid.New()
	valid := &Invoice{
		PatientID: uuid.New(),
		Items: []*Item{
			{ItemType: ItemMedicine, MedicineID: &medID, ItemName: "Chyawanprash", Quantity: 1, PricePerUnit: 250},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid invoice rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Invoice)
	}{
		{"missing patient", func(inv *Invoice) { inv.PatientID = uuid.Nil }},
		{"negative fee", func(inv *Invoice) { inv.ConsultationFee = -1 }},
		{"negative discount", func(inv *Invoice) { inv.DiscountAmount = -1 }},
		{"item without name", func(inv *Invoice) { inv.Items[0].ItemName = "" }},
		{"medicine line without reference", func(inv *Invoice) { inv.Items[0].MedicineID = nil }},
		{"zero quantity", func(inv *Invoice) { inv.Items[0].Quantity = 0 }},
		{"discount over line amount", func(inv *Invoice) { inv.Items[0].Discount = 300 }},
		{"tax over 100", func(inv *Invoice) { inv.Items[0].TaxPercentage = 101 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := uuid.New()
			inv := &Invoice{
				PatientID: uuid.New(),
				Items: []*Item{
					{ItemType: ItemMedicine, MedicineID: &id, ItemName: "Chyawanprash", Quantity: 1, PricePerUnit: 250},
				},
			}
			tc.mutate(inv)
			if err := inv.Validate(); !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(2026, time.August, 42); got != "INV-202608-00042" {
		t.Fatalf("FormatNumber = %s", got)
	}
	if got := FormatNumber(2026, time.January, 1); got != "INV-202601-00001" {
		t.Fatalf("FormatNumber = %s", got)
	}
}

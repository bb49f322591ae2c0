package printing

import (
	"strings"
	"testing"
	"time"

	"restaurant-pos/internal/models"
)

func sampleOrder() *models.Order {
	method := models.PayUPI
	return &models.Order{
		ID:          7,
		OrderNumber: 1042,
		Status:      models.StatusCompleted,
		OrderType:   models.DineIn,
		Items: []models.OrderItem{
			{Name: "Masala Dosa", Quantity: 2, UnitPrice: 100, TaxRate: 5, LineTotal: 200},
			{Name: "Filter Coffee", Quantity: 1, UnitPrice: 50, TaxRate: 0, LineTotal: 50},
		},
		Subtotal:       250,
		TaxAmount:      10,
		DiscountAmount: 20,
		TotalAmount:    240,
		PaymentMethod:  &method,
		CustomerName:   "Asha Rao",
		CustomerPhone:  "9876543210",
		TableNumber:    "T4",
		Notes:          "less spicy",
		CreatedAt:      time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC),
	}
}

func TestRenderKOT(t *testing.T) {
	out := RenderKOT(sampleOrder())

	for _, want := range []string{
		"KITCHEN ORDER TICKET",
		"Order #1042  DINE IN",
		"Table: T4",
		"2x Masala Dosa",
		"1x Filter Coffee",
		"Note: less spicy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("KOT missing %q:\n%s", want, out)
		}
	}

	// Prices never appear on the kitchen ticket.
	for _, forbidden := range []string{"100", "250", "240", "Subtotal", "TOTAL"} {
		if strings.Contains(out, forbidden) {
			t.Errorf("KOT must not contain %q:\n%s", forbidden, out)
		}
	}
}

func TestRenderReceipt(t *testing.T) {
	out := RenderReceipt(sampleOrder())

	for _, want := range []string{
		"RECEIPT",
		"Bill No: 1042",
		"Customer: Asha Rao",
		"Masala Dosa x2",
		"200.00",
		"Subtotal",
		"250.00",
		"Tax",
		"10.00",
		"Discount",
		"-20.00",
		"TOTAL",
		"240.00",
		"Paid via UPI",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("receipt missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReceiptOmitsZeroDiscountAndUnpaid(t *testing.T) {
	order := sampleOrder()
	order.DiscountAmount = 0
	order.TotalAmount = 260
	order.PaymentMethod = nil

	out := RenderReceipt(order)
	if strings.Contains(out, "Discount") {
		t.Errorf("receipt should omit zero discount:\n%s", out)
	}
	if strings.Contains(out, "Paid via") {
		t.Errorf("receipt should omit payment line when unpaid:\n%s", out)
	}
}

func TestRowAlignment(t *testing.T) {
	line := row("TOTAL", "240.00")
	if len(line) != ticketWidth {
		t.Errorf("row length = %d, want %d", len(line), ticketWidth)
	}
	if !strings.HasSuffix(line, "240.00") {
		t.Errorf("amount should be right-aligned: %q", line)
	}
}

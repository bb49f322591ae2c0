// Package pricing derives order totals from line items and a discount.
// All arithmetic is done on raw values; rounding happens only at
// presentation time and rounded values are never fed back in.
package pricing

import "math"

// Line is the minimal priced view of a cart or order line.
type Line struct {
	UnitPrice float64
	Quantity  int
	TaxRate   float64 // percent, 0 means untaxed
}

// Totals is the derived pricing breakdown of a set of lines.
type Totals struct {
	Subtotal float64
	Tax      float64
	Discount float64
	Total    float64
}

// Subtotal returns the sum of unit price times quantity over all lines.
func Subtotal(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.UnitPrice * float64(l.Quantity)
	}
	return sum
}

// Tax returns the sum of per-line tax amounts.
func Tax(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.UnitPrice * float64(l.Quantity) * l.TaxRate / 100
	}
	return sum
}

// Total returns subtotal plus tax minus discount, clamped at zero.
// A discount larger than the pre-discount total floors the result
// instead of failing; validating the discount is the caller's policy.
func Total(lines []Line, discount float64) float64 {
	return math.Max(0, Subtotal(lines)+Tax(lines)-discount)
}

// Compute returns the full breakdown for a set of lines and a discount.
func Compute(lines []Line, discount float64) Totals {
	subtotal := Subtotal(lines)
	tax := Tax(lines)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    math.Max(0, subtotal+tax-discount),
	}
}

// Round2 rounds a currency amount to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

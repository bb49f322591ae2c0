package printing

import (
	"fmt"
	"strings"

	"restaurant-pos/internal/models"
)

// Ticket width in characters, sized for 80mm thermal paper.
const ticketWidth = 40

var typeLabels = map[models.OrderType]string{
	models.DineIn:   "DINE IN",
	models.Takeaway: "TAKEAWAY",
	models.Delivery: "DELIVERY",
}

// RenderKOT renders the kitchen order ticket. The kitchen only needs the
// items and quantities, never the prices.
func RenderKOT(order *models.Order) string {
	var b strings.Builder

	writeLine(&b, center("KITCHEN ORDER TICKET"))
	writeLine(&b, divider())
	writeLine(&b, fmt.Sprintf("Order #%d  %s", order.OrderNumber, typeLabels[order.OrderType]))
	if order.TableNumber != "" {
		writeLine(&b, "Table: "+order.TableNumber)
	}
	writeLine(&b, order.CreatedAt.Format("02 Jan 2006 15:04"))
	writeLine(&b, divider())

	for _, item := range order.Items {
		writeLine(&b, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}

	if order.Notes != "" {
		writeLine(&b, divider())
		writeLine(&b, "Note: "+order.Notes)
	}
	writeLine(&b, divider())

	return b.String()
}

// RenderReceipt renders the customer receipt with full pricing breakdown.
func RenderReceipt(order *models.Order) string {
	var b strings.Builder

	writeLine(&b, center("RECEIPT"))
	writeLine(&b, divider())
	writeLine(&b, fmt.Sprintf("Bill No: %d", order.OrderNumber))
	writeLine(&b, order.CreatedAt.Format("02 Jan 2006 15:04"))
	writeLine(&b, "Type: "+typeLabels[order.OrderType])
	if order.TableNumber != "" {
		writeLine(&b, "Table: "+order.TableNumber)
	}
	writeLine(&b, "Customer: "+order.CustomerName)
	writeLine(&b, divider())

	for _, item := range order.Items {
		left := fmt.Sprintf("%s x%d", item.Name, item.Quantity)
		writeLine(&b, row(left, money(item.LineTotal)))
	}

	writeLine(&b, divider())
	writeLine(&b, row("Subtotal", money(order.Subtotal)))
	writeLine(&b, row("Tax", money(order.TaxAmount)))
	if order.DiscountAmount > 0 {
		writeLine(&b, row("Discount", "-"+money(order.DiscountAmount)))
	}
	writeLine(&b, row("TOTAL", money(order.TotalAmount)))
	writeLine(&b, divider())

	if order.PaymentMethod != nil {
		writeLine(&b, "Paid via "+strings.ToUpper(string(*order.PaymentMethod)))
	}
	writeLine(&b, center("Thank you, visit again!"))

	return b.String()
}

func writeLine(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}

func divider() string {
	return strings.Repeat("-", ticketWidth)
}

func center(s string) string {
	if len(s) >= ticketWidth {
		return s
	}
	pad := (ticketWidth - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// row right-aligns the amount against the label within the ticket width.
func row(left, right string) string {
	gap := ticketWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Package cart owns the in-progress order state for one operator session.
// A Cart is an aggregate: all mutation goes through its methods and it
// never makes external calls. Methods synchronize internally, so the
// checkout pipeline and concurrent session reads may share one cart.
package cart

import (
	"sync"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/pricing"
)

// Item identifies a purchasable catalog item at its current price.
type Item struct {
	ID      int
	Name    string
	Price   float64
	TaxRate float64
}

// LineItem is one cart line. Quantity is always at least 1; a mutation
// that would drive it to 0 removes the line instead.
type LineItem struct {
	ItemID    int
	Name      string
	UnitPrice float64
	TaxRate   float64
	Quantity  int
}

// Cart holds the mutable state of an in-progress order.
type Cart struct {
	mu             sync.Mutex
	items          []LineItem
	orderType      models.OrderType
	tableNumber    string
	customerName   string
	customerPhone  string
	discountAmount float64
	notes          string
}

// New returns an empty cart for a fresh operator session.
func New() *Cart {
	return &Cart{orderType: models.DineIn}
}

// AddItem adds one unit of the catalog item. If the item is already in the
// cart its quantity is incremented; otherwise a new line is appended at the
// item's current price.
func (c *Cart) AddItem(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ItemID == item.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, LineItem{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		TaxRate:   item.TaxRate,
		Quantity:  1,
	})
}

// UpdateQuantity sets the quantity for a line. A quantity of zero or less
// removes the line entirely. Unknown item IDs are ignored.
func (c *Cart) UpdateQuantity(itemID, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.removeLocked(itemID)
		return
	}
	for i := range c.items {
		if c.items[i].ItemID == itemID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem removes a line unconditionally.
func (c *Cart) RemoveItem(itemID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(itemID)
}

func (c *Cart) removeLocked(itemID int) {
	for i := range c.items {
		if c.items[i].ItemID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// SetOrderType replaces the order type. Other fields are left as-is; a
// delivery order may retain a stale table number until edited.
func (c *Cart) SetOrderType(t models.OrderType) {
	c.mu.Lock()
	c.orderType = t
	c.mu.Unlock()
}

func (c *Cart) SetTableNumber(table string) {
	c.mu.Lock()
	c.tableNumber = table
	c.mu.Unlock()
}

func (c *Cart) SetCustomerName(name string) {
	c.mu.Lock()
	c.customerName = name
	c.mu.Unlock()
}

func (c *Cart) SetCustomerPhone(phone string) {
	c.mu.Lock()
	c.customerPhone = phone
	c.mu.Unlock()
}

// SetNotes replaces the free-form order notes carried into the order.
func (c *Cart) SetNotes(notes string) {
	c.mu.Lock()
	c.notes = notes
	c.mu.Unlock()
}

// SetDiscount replaces the discount amount. Negative amounts are treated
// as zero so the non-negative invariant holds.
func (c *Cart) SetDiscount(amount float64) {
	if amount < 0 {
		amount = 0
	}
	c.mu.Lock()
	c.discountAmount = amount
	c.mu.Unlock()
}

// Clear resets the cart to the empty session state, notes included.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.orderType = models.DineIn
	c.tableNumber = ""
	c.customerName = ""
	c.customerPhone = ""
	c.discountAmount = 0
	c.notes = ""
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) OrderType() models.OrderType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderType
}

func (c *Cart) TableNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tableNumber
}

func (c *Cart) CustomerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.customerName
}

func (c *Cart) CustomerPhone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.customerPhone
}

func (c *Cart) DiscountAmount() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discountAmount
}

func (c *Cart) Notes() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notes
}

func (c *Cart) Subtotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Subtotal(c.linesLocked())
}

func (c *Cart) Tax() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Tax(c.linesLocked())
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Total(c.linesLocked(), c.discountAmount)
}

// Totals returns the full pricing breakdown of the cart.
func (c *Cart) Totals() pricing.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Compute(c.linesLocked(), c.discountAmount)
}

func (c *Cart) linesLocked() []pricing.Line {
	lines := make([]pricing.Line, len(c.items))
	for i, item := range c.items {
		lines[i] = pricing.Line{
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			TaxRate:   item.TaxRate,
		}
	}
	return lines
}

// Snapshot copies the cart into a create-order request for the order service.
// The cart itself is left untouched so a failed checkout can be retried.
func (c *Cart) Snapshot(createdBy int) *models.CreateOrderRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]models.OrderItem, len(c.items))
	for i, item := range c.items {
		items[i] = models.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
			LineTotal: item.UnitPrice * float64(item.Quantity),
		}
	}
	return &models.CreateOrderRequest{
		CustomerName:   c.customerName,
		CustomerPhone:  c.customerPhone,
		OrderType:      string(c.orderType),
		TableNumber:    c.tableNumber,
		Items:          items,
		DiscountAmount: c.discountAmount,
		Notes:          c.notes,
		CreatedBy:      createdBy,
	}
}

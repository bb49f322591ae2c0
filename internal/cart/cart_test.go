package cart

import (
	"math"
	"testing"

	"restaurant-pos/internal/models"
)

var (
	itemA = Item{ID: 1, Name: "Paneer Tikka", Price: 100, TaxRate: 5}
	itemB = Item{ID: 2, Name: "Lassi", Price: 50, TaxRate: 0}
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAddItemIncrementsExisting(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.AddItem(itemA)
	c.AddItem(itemB)

	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("expected quantity 2 for first line, got %d", items[0].Quantity)
	}
	if c.ItemCount() != 3 {
		t.Errorf("expected item count 3, got %d", c.ItemCount())
	}
}

func TestUpdateQuantityToZeroRemoves(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.UpdateQuantity(itemA.ID, 0)

	if !c.IsEmpty() {
		t.Fatal("expected cart to be empty after quantity update to 0")
	}
	if c.Total() != 0 {
		t.Errorf("expected total 0 for empty cart, got %v", c.Total())
	}
}

func TestUpdateQuantityNegativeRemoves(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.AddItem(itemB)
	c.UpdateQuantity(itemB.ID, -3)

	for _, item := range c.Items() {
		if item.ItemID == itemB.ID {
			t.Fatal("expected line to be removed on negative quantity")
		}
	}
}

// For any mutation sequence the subtotal must equal the sum over remaining
// lines and no line with quantity <= 0 may survive.
func TestSubtotalInvariantUnderMutations(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.AddItem(itemA)
	c.AddItem(itemB)
	c.UpdateQuantity(itemA.ID, 5)
	c.AddItem(itemB)
	c.RemoveItem(itemB.ID)
	c.AddItem(itemB)
	c.UpdateQuantity(itemB.ID, 0)

	var want float64
	for _, item := range c.Items() {
		if item.Quantity <= 0 {
			t.Fatalf("line %d has quantity %d", item.ItemID, item.Quantity)
		}
		want += item.UnitPrice * float64(item.Quantity)
	}
	if !almostEqual(c.Subtotal(), want) {
		t.Errorf("Subtotal = %v, want %v", c.Subtotal(), want)
	}
}

func TestTotals(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.AddItem(itemA)
	c.AddItem(itemB)

	if !almostEqual(c.Subtotal(), 250) {
		t.Errorf("Subtotal = %v, want 250", c.Subtotal())
	}
	if !almostEqual(c.Tax(), 10) {
		t.Errorf("Tax = %v, want 10", c.Tax())
	}
	if !almostEqual(c.Total(), 260) {
		t.Errorf("Total = %v, want 260", c.Total())
	}

	c.SetDiscount(20)
	if !almostEqual(c.Total(), 240) {
		t.Errorf("Total with discount = %v, want 240", c.Total())
	}

	c.SetDiscount(1000)
	if c.Total() != 0 {
		t.Errorf("Total with oversized discount = %v, want 0", c.Total())
	}
}

func TestSetDiscountNegative(t *testing.T) {
	c := New()
	c.SetDiscount(-5)
	if c.DiscountAmount() != 0 {
		t.Errorf("expected negative discount to be treated as 0, got %v", c.DiscountAmount())
	}
}

func TestClearResetsEverything(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.SetOrderType(models.Delivery)
	c.SetTableNumber("7")
	c.SetCustomerName("Asha")
	c.SetCustomerPhone("9876543210")
	c.SetDiscount(10)
	c.SetNotes("extra spicy")
	c.Clear()

	if !c.IsEmpty() {
		t.Fatal("expected empty cart after clear")
	}
	if c.OrderType() != models.DineIn {
		t.Errorf("expected order type reset to dine_in, got %s", c.OrderType())
	}
	if c.CustomerName() != "" || c.CustomerPhone() != "" || c.TableNumber() != "" {
		t.Error("expected customer fields reset")
	}
	if c.DiscountAmount() != 0 {
		t.Errorf("expected discount reset, got %v", c.DiscountAmount())
	}
	if c.Notes() != "" {
		t.Errorf("expected notes reset, got %q", c.Notes())
	}
}

func TestOrderTypeDoesNotClearTable(t *testing.T) {
	c := New()
	c.SetTableNumber("4")
	c.SetOrderType(models.Delivery)
	if c.TableNumber() != "4" {
		t.Error("table number must not be auto-cleared on order type change")
	}
}

func TestSnapshot(t *testing.T) {
	c := New()
	c.AddItem(itemA)
	c.AddItem(itemA)
	c.SetOrderType(models.Takeaway)
	c.SetCustomerName("Ravi")
	c.SetCustomerPhone("9000000000")
	c.SetDiscount(15)
	c.SetNotes("no onions")

	req := c.Snapshot(3)
	if req.OrderType != "takeaway" || req.CustomerName != "Ravi" || req.CreatedBy != 3 {
		t.Fatalf("unexpected snapshot header: %+v", req)
	}
	if req.Notes != "no onions" {
		t.Errorf("Notes = %q, want %q", req.Notes, "no onions")
	}
	if len(req.Items) != 1 || req.Items[0].Quantity != 2 {
		t.Fatalf("unexpected snapshot items: %+v", req.Items)
	}
	if !almostEqual(req.Items[0].LineTotal, 200) {
		t.Errorf("LineTotal = %v, want 200", req.Items[0].LineTotal)
	}

	// Snapshot must not consume the cart.
	if c.IsEmpty() {
		t.Fatal("snapshot must leave the cart intact")
	}
}

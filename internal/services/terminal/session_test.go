package terminal

import (
	"context"
	"errors"
	"testing"

	"restaurant-pos/internal/cart"
	"restaurant-pos/internal/checkout"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

type stubOrders struct {
	nextID     int
	nextNumber int
	orders     map[int]*models.Order
}

func newStubOrders() *stubOrders {
	return &stubOrders{nextID: 1, nextNumber: 1001, orders: make(map[int]*models.Order)}
}

func (s *stubOrders) Create(ctx context.Context, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	order := &models.Order{
		ID:          s.nextID,
		OrderNumber: s.nextNumber,
		Status:      models.StatusActive,
		Items:       req.Items,
		Notes:       req.Notes,
	}
	s.orders[order.ID] = order
	s.nextID++
	s.nextNumber++
	return &models.CreateOrderResponse{ID: order.ID, OrderNumber: order.OrderNumber, Status: "active"}, nil
}

func (s *stubOrders) GetByID(ctx context.Context, id int) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return order, nil
}

func (s *stubOrders) Complete(ctx context.Context, id int, method models.PaymentMethod) error {
	order, ok := s.orders[id]
	if !ok {
		return errors.New("not found")
	}
	order.Status = models.StatusCompleted
	order.PaymentMethod = &method
	return nil
}

type stubPrinter struct{}

func (stubPrinter) PrintKOT(ctx context.Context, order *models.Order) error     { return nil }
func (stubPrinter) PrintReceipt(ctx context.Context, order *models.Order) error { return nil }

// gatedPrinter blocks the kitchen ticket until released so a test can
// overlap other session activity with a running payment pipeline.
type gatedPrinter struct {
	kotStarted chan struct{}
	kotRelease chan struct{}
}

func newGatedPrinter() *gatedPrinter {
	return &gatedPrinter{
		kotStarted: make(chan struct{}),
		kotRelease: make(chan struct{}),
	}
}

func (p *gatedPrinter) PrintKOT(ctx context.Context, order *models.Order) error {
	close(p.kotStarted)
	<-p.kotRelease
	return nil
}

func (p *gatedPrinter) PrintReceipt(ctx context.Context, order *models.Order) error { return nil }

func newTestManager() *Manager {
	return NewManager(newStubOrders(), stubPrinter{}, logger.New("terminal-test"))
}

func fillCart(t *testing.T, s *Session) {
	t.Helper()
	err := s.Mutate(func(c *cart.Cart) {
		c.AddItem(cart.Item{ID: 1, Name: "Idli", Price: 40, TaxRate: 5})
		c.SetCustomerName("Asha")
		c.SetCustomerPhone("9876543210")
	})
	if err != nil {
		t.Fatalf("Mutate() = %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	m := newTestManager()

	s := m.Open(1)
	if s.ID == "" {
		t.Fatal("session ID must not be empty")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	if err := m.Close(s.ID); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after close = %v, want ErrSessionNotFound", err)
	}
	if err := m.Close(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("double Close() = %v, want ErrSessionNotFound", err)
	}
}

func TestOnlyOneCheckoutPerSession(t *testing.T) {
	m := newTestManager()
	s := m.Open(1)
	fillCart(t, s)

	if _, err := s.StartCheckout(m); err != nil {
		t.Fatalf("StartCheckout() = %v", err)
	}
	if _, err := s.StartCheckout(m); !errors.Is(err, ErrCheckoutInFlight) {
		t.Errorf("second StartCheckout() = %v, want ErrCheckoutInFlight", err)
	}
}

func TestCartFrozenDuringCheckout(t *testing.T) {
	m := newTestManager()
	s := m.Open(1)
	fillCart(t, s)

	co, err := s.StartCheckout(m)
	if err != nil {
		t.Fatalf("StartCheckout() = %v", err)
	}

	err = s.Mutate(func(c *cart.Cart) {
		c.AddItem(cart.Item{ID: 2, Name: "Vada", Price: 30})
	})
	if !errors.Is(err, ErrCheckoutInFlight) {
		t.Errorf("Mutate() during checkout = %v, want ErrCheckoutInFlight", err)
	}

	if err := co.Abandon(); err != nil {
		t.Fatalf("Abandon() = %v", err)
	}

	// Abandoning releases the cart and allows a fresh checkout.
	if err := s.Mutate(func(c *cart.Cart) {}); err != nil {
		t.Errorf("Mutate() after abandon = %v", err)
	}
	if _, err := s.StartCheckout(m); err != nil {
		t.Errorf("StartCheckout() after abandon = %v", err)
	}
}

func TestCompletedCheckoutReleasesSession(t *testing.T) {
	m := newTestManager()
	s := m.Open(1)
	fillCart(t, s)

	co, err := s.StartCheckout(m)
	if err != nil {
		t.Fatalf("StartCheckout() = %v", err)
	}
	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo() = %v", err)
	}

	result, err := co.Pay(context.Background(), models.PayCash)
	if err != nil {
		t.Fatalf("Pay() = %v", err)
	}
	if result.State != checkout.StateCompleted {
		t.Fatalf("state = %s, want completed", result.State)
	}
	if result.OrderNumber != 1001 {
		t.Errorf("order number = %d, want 1001", result.OrderNumber)
	}

	view := s.View()
	if view.ItemCount != 0 {
		t.Errorf("cart should be empty after paid checkout, got %d items", view.ItemCount)
	}
	if _, err := s.StartCheckout(m); err != nil {
		t.Errorf("StartCheckout() after completion = %v", err)
	}
}

// Viewing a session must be safe while its payment pipeline is running,
// including the moment the cart is cleared after payment.
func TestViewDuringPayment(t *testing.T) {
	orders := newStubOrders()
	printer := newGatedPrinter()
	m := NewManager(orders, printer, logger.New("terminal-test"))
	s := m.Open(1)
	fillCart(t, s)

	co, err := s.StartCheckout(m)
	if err != nil {
		t.Fatalf("StartCheckout() = %v", err)
	}
	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo() = %v", err)
	}

	payDone := make(chan checkout.Result, 1)
	go func() {
		result, _ := co.Pay(context.Background(), models.PayCard)
		payDone <- result
	}()

	<-printer.kotStarted
	viewsDone := make(chan struct{})
	go func() {
		defer close(viewsDone)
		for {
			s.View()
			select {
			case <-payDone:
				return
			default:
			}
		}
	}()
	close(printer.kotRelease)
	<-viewsDone

	view := s.View()
	if view.ItemCount != 0 {
		t.Errorf("cart should be empty after paid checkout, got %d items", view.ItemCount)
	}
}

// Notes belong to one order. Once a checkout completes and the cart
// resets, the next order on the same terminal must not inherit them.
func TestNotesDoNotLeakIntoNextOrder(t *testing.T) {
	orders := newStubOrders()
	m := NewManager(orders, stubPrinter{}, logger.New("terminal-test"))
	s := m.Open(1)
	fillCart(t, s)
	if err := s.Mutate(func(c *cart.Cart) { c.SetNotes("no onions") }); err != nil {
		t.Fatalf("Mutate() = %v", err)
	}

	payThrough := func() checkout.Result {
		t.Helper()
		co, err := s.StartCheckout(m)
		if err != nil {
			t.Fatalf("StartCheckout() = %v", err)
		}
		if err := co.ConfirmCustomerInfo(); err != nil {
			t.Fatalf("ConfirmCustomerInfo() = %v", err)
		}
		result, err := co.Pay(context.Background(), models.PayCash)
		if err != nil {
			t.Fatalf("Pay() = %v", err)
		}
		return result
	}

	first := payThrough()
	if orders.orders[first.OrderID].Notes != "no onions" {
		t.Fatalf("first order notes = %q, want %q", orders.orders[first.OrderID].Notes, "no onions")
	}

	fillCart(t, s)
	second := payThrough()
	if got := orders.orders[second.OrderID].Notes; got != "" {
		t.Errorf("second order inherited notes %q from the previous order", got)
	}
}

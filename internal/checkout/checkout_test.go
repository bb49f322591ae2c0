package checkout

import (
	"context"
	"errors"
	"testing"

	"restaurant-pos/internal/cart"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/pricing"
)

type mockOrderService struct {
	nextID      int
	nextNumber  int
	orders      map[int]*models.Order
	createErr   error
	getErr      error
	completeErr error
	createCalls int
}

func newMockOrderService() *mockOrderService {
	return &mockOrderService{nextID: 1, nextNumber: 1001, orders: map[int]*models.Order{}}
}

func (m *mockOrderService) Create(ctx context.Context, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, TaxRate: item.TaxRate}
	}
	totals := pricing.Compute(lines, req.DiscountAmount)

	order := &models.Order{
		ID:             m.nextID,
		OrderNumber:    m.nextNumber,
		Status:         models.StatusActive,
		OrderType:      models.OrderType(req.OrderType),
		Items:          req.Items,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.Tax,
		DiscountAmount: totals.Discount,
		TotalAmount:    totals.Total,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
	}
	m.orders[order.ID] = order
	m.nextID++
	m.nextNumber++
	return &models.CreateOrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
	}, nil
}

func (m *mockOrderService) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderService) Complete(ctx context.Context, id int, method models.PaymentMethod) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	order, ok := m.orders[id]
	if !ok {
		return errors.New("order not found")
	}
	order.Status = models.StatusCompleted
	order.PaymentMethod = &method
	return nil
}

type mockPrinter struct {
	kotErr       error
	receiptErr   error
	kotCount     int
	receiptCount int
	kotStarted   chan struct{}
	kotRelease   chan struct{}
}

func (m *mockPrinter) PrintKOT(ctx context.Context, order *models.Order) error {
	m.kotCount++
	if m.kotStarted != nil {
		close(m.kotStarted)
		<-m.kotRelease
	}
	return m.kotErr
}

func (m *mockPrinter) PrintReceipt(ctx context.Context, order *models.Order) error {
	m.receiptCount++
	return m.receiptErr
}

func readyCart() *cart.Cart {
	c := cart.New()
	c.AddItem(cart.Item{ID: 1, Name: "Masala Dosa", Price: 100, TaxRate: 5})
	c.AddItem(cart.Item{ID: 1, Name: "Masala Dosa", Price: 100, TaxRate: 5})
	c.AddItem(cart.Item{ID: 2, Name: "Filter Coffee", Price: 50})
	c.SetCustomerName("Asha")
	c.SetCustomerPhone("9876543210")
	return c
}

func TestConfirmCustomerInfoValidation(t *testing.T) {
	log := logger.New("test")

	tests := []struct {
		name    string
		cart    func() *cart.Cart
		wantErr error
	}{
		{
			name:    "empty cart refused",
			cart:    cart.New,
			wantErr: ErrEmptyCart,
		},
		{
			name: "missing customer name",
			cart: func() *cart.Cart {
				c := readyCart()
				c.SetCustomerName("")
				return c
			},
			wantErr: ErrMissingCustomerInfo,
		},
		{
			name: "blank phone",
			cart: func() *cart.Cart {
				c := readyCart()
				c.SetCustomerPhone("   ")
				return c
			},
			wantErr: ErrMissingCustomerInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := newMockOrderService()
			co := New(tt.cart(), orders, &mockPrinter{}, log, 1)
			if err := co.ConfirmCustomerInfo(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("ConfirmCustomerInfo() error = %v, want %v", err, tt.wantErr)
			}
			if orders.createCalls != 0 {
				t.Fatal("no order-creation call may be made on validation failure")
			}
		})
	}
}

func TestPayRequiresConfirmedInfo(t *testing.T) {
	co := New(readyCart(), newMockOrderService(), &mockPrinter{}, logger.New("test"), 1)
	if _, err := co.Pay(context.Background(), models.PayCash); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Pay before confirm error = %v, want %v", err, ErrInvalidState)
	}
}

func TestFullPipelineSuccess(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	printer := &mockPrinter{}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayUPI)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}

	if result.State != StateCompleted {
		t.Errorf("state = %s, want %s", result.State, StateCompleted)
	}
	if result.OrderNumber != 1001 {
		t.Errorf("order number = %d, want 1001", result.OrderNumber)
	}
	if !result.KOTSent || !result.Paid || !result.ReceiptSent {
		t.Errorf("unexpected step outcomes: %+v", result)
	}
	if !c.IsEmpty() {
		t.Error("cart must be reset after a successful checkout")
	}

	order := orders.orders[result.OrderID]
	if order.Status != models.StatusCompleted {
		t.Errorf("order status = %s, want completed", order.Status)
	}
	if order.PaymentMethod == nil || *order.PaymentMethod != models.PayUPI {
		t.Error("payment method not recorded on completion")
	}
}

func TestCreateOrderFailureAborts(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	orders.createErr = errors.New("database unavailable")
	printer := &mockPrinter{}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayCash)
	if err == nil {
		t.Fatal("expected error when order creation fails")
	}
	if result.FailedStep != StepCreateOrder {
		t.Errorf("failed step = %s, want create_order", result.FailedStep)
	}
	if result.OrderID != 0 || len(orders.orders) != 0 {
		t.Error("no order may exist after a create failure")
	}
	if printer.kotCount != 0 || printer.receiptCount != 0 {
		t.Error("no print dispatch may happen after a create failure")
	}
	if c.IsEmpty() {
		t.Error("cart must be left intact for retry")
	}
}

func TestKOTFailureLeavesOrderActive(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	printer := &mockPrinter{kotErr: errors.New("printer offline")}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayCard)
	if err == nil {
		t.Fatal("expected error when kitchen ticket dispatch fails")
	}
	if result.FailedStep != StepPrintKOT {
		t.Errorf("failed step = %s, want print_kot", result.FailedStep)
	}

	order := orders.orders[result.OrderID]
	if order == nil {
		t.Fatal("order must remain persisted after a print failure")
	}
	if order.Status != models.StatusActive {
		t.Errorf("order status = %s, want active", order.Status)
	}
	if printer.receiptCount != 0 {
		t.Error("no receipt may be sent after a kitchen ticket failure")
	}

	// Manual reprint later succeeds independently of the failed pipeline.
	printer.kotErr = nil
	printer.receiptErr = nil
	if err := co.ReprintReceipt(context.Background()); err != nil {
		t.Fatalf("manual reprint failed: %v", err)
	}
	if printer.receiptCount != 1 {
		t.Errorf("receipt count = %d, want 1", printer.receiptCount)
	}
}

func TestPaymentFailureLeavesPartialState(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	orders.completeErr = errors.New("payment gateway timeout")
	printer := &mockPrinter{}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayCash)
	if err == nil {
		t.Fatal("expected error when payment completion fails")
	}
	if result.FailedStep != StepCompletePayment {
		t.Errorf("failed step = %s, want complete_payment", result.FailedStep)
	}
	if !result.KOTSent {
		t.Error("kitchen ticket was already dispatched before the payment step")
	}

	order := orders.orders[result.OrderID]
	if order.Status != models.StatusActive {
		t.Errorf("order status = %s, want active (no compensating cancellation)", order.Status)
	}
	if order.PaymentMethod != nil {
		t.Error("payment method must not be recorded on failure")
	}
}

func TestReceiptFailureDoesNotAffectStatus(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	printer := &mockPrinter{receiptErr: errors.New("out of paper")}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayUPI)
	if err == nil {
		t.Fatal("receipt failure must still be reported to the caller")
	}
	if result.State != StateCompleted || !result.Paid {
		t.Errorf("payment outcome must survive a receipt failure: %+v", result)
	}

	order := orders.orders[result.OrderID]
	if order.Status != models.StatusCompleted {
		t.Errorf("order status = %s, want completed", order.Status)
	}
}

func TestSecondPaymentWhileProcessingRejected(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	printer := &mockPrinter{
		kotStarted: make(chan struct{}),
		kotRelease: make(chan struct{}),
	}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := co.Pay(context.Background(), models.PayCash); err != nil {
			t.Errorf("first Pay: %v", err)
		}
	}()

	<-printer.kotStarted
	if _, err := co.Pay(context.Background(), models.PayCard); !errors.Is(err, ErrPaymentInProgress) {
		t.Errorf("second Pay error = %v, want %v", err, ErrPaymentInProgress)
	}
	close(printer.kotRelease)
	<-done
}

func TestReprintReceiptIsIdempotent(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	printer := &mockPrinter{}
	co := New(c, orders, printer, logger.New("test"), 1)

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayCash)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}

	before := *orders.orders[result.OrderID]
	for i := 0; i < 3; i++ {
		if err := co.ReprintReceipt(context.Background()); err != nil {
			t.Fatalf("ReprintReceipt: %v", err)
		}
	}
	after := *orders.orders[result.OrderID]

	if before.Status != after.Status || before.TotalAmount != after.TotalAmount {
		t.Error("reprint must never change order status or totals")
	}
	if printer.receiptCount != 4 {
		t.Errorf("receipt dispatch count = %d, want 4", printer.receiptCount)
	}
}

func TestViewBill(t *testing.T) {
	c := readyCart()
	orders := newMockOrderService()
	co := New(c, orders, &mockPrinter{}, logger.New("test"), 1)

	if _, err := co.ViewBill(context.Background()); !errors.Is(err, ErrNoOrder) {
		t.Fatalf("ViewBill before creation error = %v, want %v", err, ErrNoOrder)
	}

	if err := co.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	result, err := co.Pay(context.Background(), models.PayCard)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}

	bill, err := co.ViewBill(context.Background())
	if err != nil {
		t.Fatalf("ViewBill: %v", err)
	}
	if bill.OrderNumber != result.OrderNumber {
		t.Errorf("bill order number = %d, want %d", bill.OrderNumber, result.OrderNumber)
	}
}

func TestAbandon(t *testing.T) {
	c := readyCart()
	co := New(c, newMockOrderService(), &mockPrinter{}, logger.New("test"), 1)

	if err := co.Abandon(); err != nil {
		t.Fatalf("Abandon in collecting_info: %v", err)
	}
	if co.State() != StateAbandoned {
		t.Errorf("state = %s, want abandoned", co.State())
	}
	if c.IsEmpty() {
		t.Error("abandoning must not touch the cart")
	}

	// Once the pipeline has finished there is no abandon path.
	c2 := readyCart()
	co2 := New(c2, newMockOrderService(), &mockPrinter{}, logger.New("test"), 1)
	if err := co2.ConfirmCustomerInfo(); err != nil {
		t.Fatalf("ConfirmCustomerInfo: %v", err)
	}
	if _, err := co2.Pay(context.Background(), models.PayCash); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if err := co2.Abandon(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Abandon after completion error = %v, want %v", err, ErrInvalidState)
	}
}

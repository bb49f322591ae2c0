// Package checkout drives a cart through the order pipeline: create the
// order, dispatch the kitchen ticket, complete payment, dispatch the
// receipt. The flow is an explicit state machine so each step's failure
// mode can be exercised in isolation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"restaurant-pos/internal/cart"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// State is the checkout flow state.
type State string

const (
	StateCollectingInfo  State = "collecting_info"
	StateAwaitingPayment State = "awaiting_payment"
	StateProcessing      State = "processing"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StateAbandoned       State = "abandoned"
)

// Step is the pipeline step index.
type Step int

const (
	StepNone Step = iota
	StepCreateOrder
	StepPrintKOT
	StepCompletePayment
	StepPrintReceipt
)

func (s Step) String() string {
	switch s {
	case StepCreateOrder:
		return "create_order"
	case StepPrintKOT:
		return "print_kot"
	case StepCompletePayment:
		return "complete_payment"
	case StepPrintReceipt:
		return "print_receipt"
	default:
		return "none"
	}
}

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrMissingCustomerInfo = errors.New("customer name and phone are required")
	ErrPaymentInProgress   = errors.New("a payment is already being processed")
	ErrInvalidState        = errors.New("operation not allowed in current checkout state")
	ErrNoOrder             = errors.New("no order has been created yet")
)

// OrderService is the order persistence contract the pipeline depends on.
type OrderService interface {
	Create(ctx context.Context, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	GetByID(ctx context.Context, id int) (*models.Order, error)
	Complete(ctx context.Context, id int, method models.PaymentMethod) error
}

// PrintService dispatches kitchen tickets and customer receipts.
type PrintService interface {
	PrintKOT(ctx context.Context, order *models.Order) error
	PrintReceipt(ctx context.Context, order *models.Order) error
}

// Result records what the pipeline achieved, including partial outcomes.
type Result struct {
	State         State                `json:"state"`
	OrderID       int                  `json:"order_id,omitempty"`
	OrderNumber   int                  `json:"order_number,omitempty"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	KOTSent       bool                 `json:"kot_sent"`
	Paid          bool                 `json:"paid"`
	ReceiptSent   bool                 `json:"receipt_sent"`
	FailedStep    Step                 `json:"-"`
	Err           error                `json:"-"`
}

// Checkout is a single-use orchestrator for one cart.
type Checkout struct {
	cart    *cart.Cart
	orders  OrderService
	printer PrintService
	logger  *logger.Logger

	createdBy int

	mu     sync.Mutex
	state  State
	step   Step
	result Result
}

// New starts a checkout flow for the given cart in the collecting-info state.
func New(c *cart.Cart, orders OrderService, printer PrintService, log *logger.Logger, createdBy int) *Checkout {
	return &Checkout{
		cart:      c,
		orders:    orders,
		printer:   printer,
		logger:    log,
		createdBy: createdBy,
		state:     StateCollectingInfo,
	}
}

// State returns the current flow state.
func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Step returns the last pipeline step that was started.
func (c *Checkout) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Result returns a copy of the pipeline outcome so far.
func (c *Checkout) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ConfirmCustomerInfo validates the cart and customer fields and moves the
// flow to awaiting-payment. Both name and phone are mandatory before a
// payment method can be selected.
func (c *Checkout) ConfirmCustomerInfo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCollectingInfo {
		return fmt.Errorf("%w: %s", ErrInvalidState, c.state)
	}
	if c.cart.IsEmpty() {
		return ErrEmptyCart
	}
	if strings.TrimSpace(c.cart.CustomerName()) == "" || strings.TrimSpace(c.cart.CustomerPhone()) == "" {
		return ErrMissingCustomerInfo
	}

	c.state = StateAwaitingPayment
	return nil
}

// Abandon closes the flow before any order has been created. Once the
// create-order step has started there is no cancellation path.
func (c *Checkout) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCollectingInfo, StateAwaitingPayment:
		c.state = StateAbandoned
		return nil
	default:
		return fmt.Errorf("%w: cannot abandon in state %s", ErrInvalidState, c.state)
	}
}

// Pay runs the pipeline for the selected payment method. The steps are
// strictly sequential; a second call while one is processing is rejected,
// not queued. The returned Result always reflects partial progress.
func (c *Checkout) Pay(ctx context.Context, method models.PaymentMethod) (Result, error) {
	c.mu.Lock()
	switch c.state {
	case StateProcessing:
		c.mu.Unlock()
		return c.Result(), ErrPaymentInProgress
	case StateAwaitingPayment:
		// proceed
	default:
		state := c.state
		c.mu.Unlock()
		return c.Result(), fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	if c.cart.IsEmpty() {
		c.mu.Unlock()
		return c.Result(), ErrEmptyCart
	}
	c.state = StateProcessing
	c.result = Result{State: StateProcessing, PaymentMethod: method}
	c.mu.Unlock()

	requestID := logger.GenerateRequestID()
	result, err := c.run(ctx, method, requestID)

	c.mu.Lock()
	c.result = result
	c.state = result.State
	c.mu.Unlock()

	return result, err
}

func (c *Checkout) run(ctx context.Context, method models.PaymentMethod, requestID string) (Result, error) {
	result := Result{State: StateProcessing, PaymentMethod: method}

	// Step A: create the order. Failure aborts with nothing persisted and
	// the cart intact for retry.
	c.setStep(StepCreateOrder)
	created, err := c.orders.Create(ctx, c.cart.Snapshot(c.createdBy))
	if err != nil {
		return c.fail(result, StepCreateOrder, requestID, fmt.Errorf("order creation failed: %w", err))
	}
	result.OrderID = created.ID
	result.OrderNumber = created.OrderNumber
	c.logger.Info("order_created", fmt.Sprintf("Order #%d created", created.OrderNumber), requestID, map[string]interface{}{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"total_amount": created.TotalAmount,
	})

	// Step B: dispatch the kitchen ticket. The order stays persisted and
	// active on failure; printing can be retried manually later.
	c.setStep(StepPrintKOT)
	order, err := c.orders.GetByID(ctx, created.ID)
	if err != nil {
		return c.fail(result, StepPrintKOT, requestID, fmt.Errorf("failed to fetch order for kitchen ticket: %w", err))
	}
	if err := c.printer.PrintKOT(ctx, order); err != nil {
		return c.fail(result, StepPrintKOT, requestID, fmt.Errorf("kitchen ticket dispatch failed: %w", err))
	}
	result.KOTSent = true

	// Step C: complete payment. This is the only checkout path that moves
	// the order to completed and records the payment method. On failure the
	// order stays active with the kitchen ticket already sent; the operator
	// resolves it via the manual complete path.
	c.setStep(StepCompletePayment)
	if err := c.orders.Complete(ctx, created.ID, method); err != nil {
		return c.fail(result, StepCompletePayment, requestID, fmt.Errorf("payment completion failed: %w", err))
	}
	result.Paid = true
	c.cart.Clear()

	// Step D: dispatch the customer receipt. Failure is reported but the
	// order stays completed; the receipt can be reprinted any time.
	c.setStep(StepPrintReceipt)
	completed, err := c.orders.GetByID(ctx, created.ID)
	if err == nil {
		err = c.printer.PrintReceipt(ctx, completed)
	}
	if err != nil {
		result.State = StateCompleted
		result.FailedStep = StepPrintReceipt
		result.Err = fmt.Errorf("receipt dispatch failed: %w", err)
		c.logger.Error("checkout_step_failed", "Receipt dispatch failed after payment", requestID, err, map[string]interface{}{
			"step":         StepPrintReceipt.String(),
			"order_number": result.OrderNumber,
		})
		return result, result.Err
	}
	result.ReceiptSent = true

	result.State = StateCompleted
	c.logger.Info("checkout_completed", fmt.Sprintf("Checkout completed for order #%d", result.OrderNumber), requestID, map[string]interface{}{
		"order_number":   result.OrderNumber,
		"payment_method": string(method),
	})
	return result, nil
}

func (c *Checkout) fail(result Result, step Step, requestID string, err error) (Result, error) {
	result.State = StateFailed
	result.FailedStep = step
	result.Err = err
	c.logger.Error("checkout_step_failed", "Checkout pipeline step failed", requestID, err, map[string]interface{}{
		"step":         step.String(),
		"order_id":     result.OrderID,
		"order_number": result.OrderNumber,
	})
	return result, err
}

func (c *Checkout) setStep(step Step) {
	c.mu.Lock()
	c.step = step
	c.mu.Unlock()
}

// ViewBill re-fetches the created order read-only. Available any time after
// the create-order step succeeded, independent of the pipeline outcome.
func (c *Checkout) ViewBill(ctx context.Context) (*models.Order, error) {
	result := c.Result()
	if result.OrderID == 0 {
		return nil, ErrNoOrder
	}
	return c.orders.GetByID(ctx, result.OrderID)
}

// ReprintReceipt re-dispatches the customer receipt. It never changes order
// status or totals and may be invoked any number of times.
func (c *Checkout) ReprintReceipt(ctx context.Context) error {
	result := c.Result()
	if result.OrderID == 0 {
		return ErrNoOrder
	}
	order, err := c.orders.GetByID(ctx, result.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order for reprint: %w", err)
	}
	return c.printer.PrintReceipt(ctx, order)
}

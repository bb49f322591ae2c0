package models

import (
	"fmt"
	"strings"
	"time"
)

// OrderType represents the fulfillment channel of an order.
type OrderType string

const (
	DineIn   OrderType = "dine_in"
	Takeaway OrderType = "takeaway"
	Delivery OrderType = "delivery"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	StatusActive    OrderStatus = "active"
	StatusHeld      OrderStatus = "held"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// PaymentMethod represents how a completed order was paid.
type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayCard PaymentMethod = "card"
	PayUPI  PaymentMethod = "upi"
)

// OrderItem is a snapshot of a sold item, independent of later menu price changes.
type OrderItem struct {
	ID        int     `json:"id,omitempty" db:"id"`
	OrderID   int     `json:"order_id,omitempty" db:"order_id"`
	Name      string  `json:"item_name" db:"name"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	TaxRate   float64 `json:"tax_rate" db:"tax_rate"`
	LineTotal float64 `json:"item_total" db:"line_total"`
}

// Order is the durable record produced by checkout.
type Order struct {
	ID             int            `json:"id,omitempty" db:"id"`
	OrderNumber    int            `json:"order_number" db:"order_number"`
	Status         OrderStatus    `json:"status" db:"status"`
	OrderType      OrderType      `json:"order_type" db:"order_type"`
	Items          []OrderItem    `json:"items"`
	Subtotal       float64        `json:"subtotal" db:"subtotal"`
	TaxAmount      float64        `json:"tax_amount" db:"tax_amount"`
	DiscountAmount float64        `json:"discount_amount" db:"discount_amount"`
	TotalAmount    float64        `json:"total_amount" db:"total_amount"`
	PaymentMethod  *PaymentMethod `json:"payment_method,omitempty" db:"payment_method"`
	CustomerName   string         `json:"customer_name" db:"customer_name"`
	CustomerPhone  string         `json:"customer_phone" db:"customer_phone"`
	TableNumber    string         `json:"table_number,omitempty" db:"table_number"`
	Notes          string         `json:"notes,omitempty" db:"notes"`
	CreatedBy      int            `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time      `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty" db:"updated_at"`
}

// OrderStatusHistory is an entry in the order status log.
type OrderStatusHistory struct {
	Status    OrderStatus `json:"status" db:"status"`
	ChangedBy string      `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time   `json:"timestamp" db:"changed_at"`
	Notes     *string     `json:"notes,omitempty" db:"notes"`
}

// ParseOrderType validates and converts an order type string.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case DineIn, Takeaway, Delivery:
		return OrderType(s), nil
	default:
		return "", fmt.Errorf("order_type must be one of: dine_in, takeaway, delivery")
	}
}

// ParseOrderStatus validates and converts an order status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusActive, StatusHeld, StatusCompleted, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("status must be one of: active, held, completed, cancelled")
	}
}

// ParsePaymentMethod validates and converts a payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PayCash, PayCard, PayUPI:
		return PaymentMethod(s), nil
	default:
		return "", fmt.Errorf("payment_method must be one of: cash, card, upi")
	}
}

// IsTerminal reports whether no further transition is permitted out of the status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsEditable reports whether order fields may still be modified in this status.
func (s OrderStatus) IsEditable() bool {
	return s == StatusActive || s == StatusHeld
}

// CanTransition reports whether the status transition from s to next is legal.
// Legal transitions: active <-> held, active|held -> completed, active|held -> cancelled.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusActive:
		return next == StatusHeld || next == StatusCompleted || next == StatusCancelled
	case StatusHeld:
		return next == StatusActive || next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// IsAttentionStatus reports whether an order counts as "active" for the dashboard
// summary. Only active and held orders need operator attention; the order-listing
// status filter matches the literal status instead.
func (s OrderStatus) IsAttentionStatus() bool {
	return s == StatusActive || s == StatusHeld
}

// CreateOrderRequest is the cart snapshot submitted to the order service.
type CreateOrderRequest struct {
	CustomerName   string      `json:"customer_name"`
	CustomerPhone  string      `json:"customer_phone"`
	OrderType      string      `json:"order_type"`
	TableNumber    string      `json:"table_number,omitempty"`
	Items          []OrderItem `json:"items"`
	DiscountAmount float64     `json:"discount_amount"`
	Notes          string      `json:"notes,omitempty"`
	CreatedBy      int         `json:"created_by,omitempty"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
}

// Validate checks the create order request before any persistence happens.
func (req *CreateOrderRequest) Validate() error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return fmt.Errorf("customer_name is required")
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return fmt.Errorf("customer_phone is required")
	}
	if _, err := ParseOrderType(req.OrderType); err != nil {
		return err
	}
	if req.DiscountAmount < 0 {
		return fmt.Errorf("discount_amount must not be negative")
	}
	return validateItems(req.Items)
}

// CreateOrderResponse is returned after the order service persists a new order.
type CreateOrderResponse struct {
	ID          int     `json:"id"`
	OrderNumber int     `json:"order_number"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
}

// UpdateOrderRequest is the patch applied when an existing order is edited.
// Nil pointers leave the corresponding field untouched.
type UpdateOrderRequest struct {
	CustomerName   *string     `json:"customer_name,omitempty"`
	CustomerPhone  *string     `json:"customer_phone,omitempty"`
	OrderType      *string     `json:"order_type,omitempty"`
	TableNumber    *string     `json:"table_number,omitempty"`
	Status         *string     `json:"status,omitempty"`
	DiscountAmount *float64    `json:"discount_amount,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
	Items          []OrderItem `json:"items,omitempty"`
}

// Validate checks the patch fields that carry enumerated or constrained values.
func (req *UpdateOrderRequest) Validate() error {
	if req.OrderType != nil {
		if _, err := ParseOrderType(*req.OrderType); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if _, err := ParseOrderStatus(*req.Status); err != nil {
			return err
		}
	}
	if req.DiscountAmount != nil && *req.DiscountAmount < 0 {
		return fmt.Errorf("discount_amount must not be negative")
	}
	if req.Items != nil {
		return validateItems(req.Items)
	}
	return nil
}

func validateItems(items []OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}
	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%s.item_name is required", prefix)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%s.quantity must be at least 1", prefix)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%s.unit_price must not be negative", prefix)
		}
		if item.TaxRate < 0 {
			return fmt.Errorf("%s.tax_rate must not be negative", prefix)
		}
	}
	return nil
}

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/pricing"
)

var (
	// ErrDuplicateRequest is returned when an idempotency key was already used.
	ErrDuplicateRequest = errors.New("duplicate request: idempotency key already used")
	// ErrOrderNotEditable is returned when a patch targets a terminal order.
	ErrOrderNotEditable = errors.New("completed and cancelled orders cannot be modified")
	// ErrIllegalTransition is returned when a status patch breaks the state machine.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Service owns order lifecycle rules on top of the repository.
type Service struct {
	repo   *Repository
	rdb    *redis.Client
	logger *logger.Logger
}

// NewService creates a new order service. rdb may be nil when idempotency
// key checking is disabled.
func NewService(repo *Repository, rdb *redis.Client, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		rdb:    rdb,
		logger: log,
	}
}

// Create validates and persists a new active order. Totals are computed
// server-side from the item lines, never trusted from the request.
func (s *Service) Create(ctx context.Context, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		fresh, err := s.claimIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, ErrDuplicateRequest
		}
	}

	orderType, _ := models.ParseOrderType(req.OrderType)

	lines := make([]pricing.Line, len(req.Items))
	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, TaxRate: item.TaxRate}
		item.LineTotal = pricing.Round2(item.UnitPrice * float64(item.Quantity))
		items[i] = item
	}
	totals := pricing.Compute(lines, req.DiscountAmount)

	order := &models.Order{
		Status:         models.StatusActive,
		OrderType:      orderType,
		Items:          items,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.Tax,
		DiscountAmount: totals.Discount,
		TotalAmount:    totals.Total,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		TableNumber:    req.TableNumber,
		Notes:          req.Notes,
		CreatedBy:      req.CreatedBy,
	}

	if err := s.repo.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order_created", fmt.Sprintf("Order #%d created", order.OrderNumber), "", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
		"created_by":   order.CreatedBy,
	})

	return &models.CreateOrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
	}, nil
}

// GetByID returns a single order with its items.
func (s *Service) GetByID(ctx context.Context, id int) (*models.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAll returns all orders, newest first.
func (s *Service) GetAll(ctx context.Context) ([]models.Order, error) {
	return s.repo.GetAll(ctx)
}

// GetRecent returns the most recent orders.
func (s *Service) GetRecent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.GetRecent(ctx, limit)
}

// Update applies a patch to a non-terminal order and recomputes totals when
// items or the discount change. Terminal orders reject every patch.
func (s *Service) Update(ctx context.Context, id int, req *models.UpdateOrderRequest, changedBy int) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsEditable() {
		return nil, ErrOrderNotEditable
	}

	statusChanged := false
	if req.Status != nil {
		next, _ := models.ParseOrderStatus(*req.Status)
		if !order.Status.CanTransition(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, next)
		}
		statusChanged = next != order.Status
		order.Status = next
	}
	if req.CustomerName != nil {
		order.CustomerName = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		order.CustomerPhone = *req.CustomerPhone
	}
	if req.OrderType != nil {
		order.OrderType, _ = models.ParseOrderType(*req.OrderType)
	}
	if req.TableNumber != nil {
		order.TableNumber = *req.TableNumber
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.DiscountAmount != nil {
		order.DiscountAmount = *req.DiscountAmount
	}
	if req.Items != nil {
		for i := range req.Items {
			req.Items[i].LineTotal = pricing.Round2(req.Items[i].UnitPrice * float64(req.Items[i].Quantity))
		}
		order.Items = req.Items
	}

	lines := make([]pricing.Line, len(order.Items))
	for i, item := range order.Items {
		lines[i] = pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, TaxRate: item.TaxRate}
	}
	totals := pricing.Compute(lines, order.DiscountAmount)
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.Tax
	order.TotalAmount = totals.Total

	if err := s.repo.UpdateOrder(ctx, order, statusChanged, changedBy); err != nil {
		return nil, err
	}

	s.logger.Info("order_updated", fmt.Sprintf("Order #%d updated", order.OrderNumber), "", map[string]interface{}{
		"order_id": order.ID,
		"status":   string(order.Status),
	})

	return s.repo.GetByID(ctx, id)
}

// Complete moves an active or held order to completed and records how it was
// paid. Completing an already terminal order fails with ErrNotFound because
// the guarded update matches no row.
func (s *Service) Complete(ctx context.Context, id int, method models.PaymentMethod) error {
	if _, err := models.ParsePaymentMethod(string(method)); err != nil {
		return err
	}
	if err := s.repo.CompleteOrder(ctx, id, method, 0); err != nil {
		return err
	}

	s.logger.Info("order_completed", fmt.Sprintf("Order %d completed", id), "", map[string]interface{}{
		"order_id":       id,
		"payment_method": string(method),
	})
	return nil
}

// Delete removes an order entirely.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order_deleted", fmt.Sprintf("Order %d deleted", id), "", map[string]interface{}{
		"order_id": id,
	})
	return nil
}

// StatusHistory returns the audit log of status changes for an order.
func (s *Service) StatusHistory(ctx context.Context, id int) ([]models.OrderStatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetStatusHistory(ctx, id)
}

// claimIdempotencyKey reports whether the key is fresh and marks it used for
// 24 hours. A retry with the same key within the window is a duplicate.
func (s *Service) claimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("idempotency-key:%s", key)
	_, err := s.rdb.Get(ctx, redisKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if err == nil {
		return false, nil
	}

	if err := s.rdb.Set(ctx, redisKey, "exists", 24*time.Hour).Err(); err != nil {
		return false, fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return true, nil
}

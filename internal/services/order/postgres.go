package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"
)

// ErrNotFound is returned when the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new order repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// InsertOrder inserts the order, its items and the initial status log entry
// in one transaction. The order number comes from the database sequence.
func (r *Repository) InsertOrder(ctx context.Context, order *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.Status, order.OrderType, order.Subtotal, order.TaxAmount,
		order.DiscountAmount, order.TotalAmount, order.CustomerName,
		order.CustomerPhone, nullable(order.TableNumber), nullable(order.Notes),
		order.CreatedBy,
	).Scan(&order.ID, &order.OrderNumber, &order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err = tx.Exec(ctx, database.InsertOrderItemSQL,
			order.ID, item.Name, item.Quantity, item.UnitPrice, item.TaxRate, item.LineTotal)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		order.ID, order.Status, order.CreatedBy, nil)
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID loads an order with its items.
func (r *Repository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	order, err := r.scanOrder(r.db.QueryRow(ctx, database.GetOrderByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// GetAll loads all orders with their items, newest first.
func (r *Repository) GetAll(ctx context.Context) ([]models.Order, error) {
	return r.queryOrders(ctx, database.GetAllOrdersSQL)
}

// GetRecent loads the most recent orders with their items.
func (r *Repository) GetRecent(ctx context.Context, limit int) ([]models.Order, error) {
	return r.queryOrders(ctx, database.GetRecentOrdersSQL, limit)
}

func (r *Repository) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]models.Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.getItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *Repository) getItems(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.Name, &item.Quantity,
			&item.UnitPrice, &item.TaxRate, &item.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateOrder rewrites the order row and replaces its items in one transaction.
func (r *Repository) UpdateOrder(ctx context.Context, order *models.Order, statusChanged bool, changedBy int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, database.UpdateOrderSQL,
		order.CustomerName, order.CustomerPhone, order.OrderType,
		nullable(order.TableNumber), order.Status, order.Subtotal,
		order.TaxAmount, order.DiscountAmount, order.TotalAmount,
		nullable(order.Notes), order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if _, err = tx.Exec(ctx, database.DeleteOrderItemsSQL, order.ID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	for _, item := range order.Items {
		_, err = tx.Exec(ctx, database.InsertOrderItemSQL,
			order.ID, item.Name, item.Quantity, item.UnitPrice, item.TaxRate, item.LineTotal)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if statusChanged {
		_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
			order.ID, order.Status, changedBy, nil)
		if err != nil {
			return fmt.Errorf("failed to insert status log: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// CompleteOrder marks a non-terminal order completed and records the payment
// method. Returns ErrNotFound when the order is missing or already terminal.
func (r *Repository) CompleteOrder(ctx context.Context, id int, method models.PaymentMethod, changedBy int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, database.CompleteOrderSQL, method, id)
	if err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		id, models.StatusCompleted, changedBy, nil)
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	return tx.Commit(ctx)
}

// DeleteOrder removes an order and its items.
func (r *Repository) DeleteOrder(ctx context.Context, id int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, database.DeleteOrderItemsSQL, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	tag, err := tx.Exec(ctx, database.DeleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// GetStatusHistory returns the status log for an order, oldest first.
func (r *Repository) GetStatusHistory(ctx context.Context, id int) ([]models.OrderStatusHistory, error) {
	rows, err := r.db.Query(ctx, database.GetOrderStatusHistorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []models.OrderStatusHistory
	for rows.Next() {
		var entry models.OrderStatusHistory
		var changedBy *int
		err := rows.Scan(&entry.Status, &changedBy, &entry.ChangedAt, &entry.Notes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		if changedBy != nil {
			entry.ChangedBy = fmt.Sprintf("%d", *changedBy)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var paymentMethod *string
	var tableNumber, notes *string

	err := row.Scan(&order.ID, &order.OrderNumber, &order.Status, &order.OrderType,
		&order.Subtotal, &order.TaxAmount, &order.DiscountAmount, &order.TotalAmount,
		&paymentMethod, &order.CustomerName, &order.CustomerPhone, &tableNumber,
		&notes, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if paymentMethod != nil {
		method := models.PaymentMethod(*paymentMethod)
		order.PaymentMethod = &method
	}
	if tableNumber != nil {
		order.TableNumber = *tableNumber
	}
	if notes != nil {
		order.Notes = *notes
	}
	return &order, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

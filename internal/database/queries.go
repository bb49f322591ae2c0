package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (status, order_type, subtotal, tax_amount, discount_amount, total_amount,
			customer_name, customer_phone, table_number, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, order_number, created_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, name, quantity, unit_price, tax_rate, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	GetOrderByIDSQL = `
		SELECT id, order_number, status, order_type, subtotal, tax_amount, discount_amount,
			   total_amount, payment_method, customer_name, customer_phone, table_number,
			   notes, created_by, created_at, updated_at
		FROM orders WHERE id = $1`

	GetOrderItemsSQL = `
		SELECT id, order_id, name, quantity, unit_price, tax_rate, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id ASC`

	GetAllOrdersSQL = `
		SELECT id, order_number, status, order_type, subtotal, tax_amount, discount_amount,
			   total_amount, payment_method, customer_name, customer_phone, table_number,
			   notes, created_by, created_at, updated_at
		FROM orders ORDER BY created_at DESC`

	GetRecentOrdersSQL = `
		SELECT id, order_number, status, order_type, subtotal, tax_amount, discount_amount,
			   total_amount, payment_method, customer_name, customer_phone, table_number,
			   notes, created_by, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1`

	UpdateOrderSQL = `
		UPDATE orders SET customer_name = $1, customer_phone = $2, order_type = $3,
			table_number = $4, status = $5, subtotal = $6, tax_amount = $7,
			discount_amount = $8, total_amount = $9, notes = $10, updated_at = NOW()
		WHERE id = $11`

	CompleteOrderSQL = `
		UPDATE orders SET status = 'completed', payment_method = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ('active', 'held')`

	DeleteOrderItemsSQL = `
		DELETE FROM order_items WHERE order_id = $1`

	DeleteOrderSQL = `
		DELETE FROM orders WHERE id = $1`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log WHERE order_id = $1
		ORDER BY changed_at ASC`
)

// Report queries
const (
	DailySalesSQL = `
		SELECT COALESCE(SUM(total_amount), 0),
			   COUNT(*),
			   COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'cash'), 0),
			   COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'card'), 0),
			   COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'upi'), 0)
		FROM orders
		WHERE status = 'completed' AND created_at::date = $1`

	DailyOrdersSQL = `
		SELECT id, order_number, order_type, payment_method, total_amount, created_at
		FROM orders
		WHERE status = 'completed' AND created_at::date = $1
		ORDER BY created_at ASC`

	DailyTopItemsSQL = `
		SELECT oi.name, SUM(oi.quantity), SUM(oi.line_total)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'completed' AND o.created_at::date = $1
		GROUP BY oi.name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT 10`

	WeeklyAggregateSQL = `
		SELECT created_at::date,
			   COALESCE(SUM(total_amount), 0),
			   COUNT(*),
			   COALESCE(SUM(tax_amount), 0),
			   COALESCE(SUM(discount_amount), 0)
		FROM orders
		WHERE status = 'completed'
		  AND created_at::date >= $1::date
		  AND created_at::date < $1::date + 7
		GROUP BY created_at::date
		ORDER BY created_at::date ASC`

	BillerDailySalesSQL = `
		SELECT COALESCE(SUM(total_amount), 0),
			   COUNT(*),
			   COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'cash'), 0),
			   COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'card'), 0),
			   COALESCE(SUM(total_amount) FILTER (WHERE payment_method = 'upi'), 0)
		FROM orders
		WHERE status = 'completed' AND created_at::date = $1 AND created_by = $2`

	BillerDailyOrdersSQL = `
		SELECT id, order_number, order_type, payment_method, total_amount, created_at
		FROM orders
		WHERE status = 'completed' AND created_at::date = $1 AND created_by = $2
		ORDER BY created_at ASC`
)

package reports

import (
	"context"
	"fmt"
	"time"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// SalesSummary aggregates completed orders for one scope.
type SalesSummary struct {
	TotalSales float64 `json:"total_sales"`
	OrderCount int     `json:"order_count"`
	CashSales  float64 `json:"cash_sales"`
	CardSales  float64 `json:"card_sales"`
	UPISales   float64 `json:"upi_sales"`
}

// ReportOrder is the compact order row shown in report listings.
type ReportOrder struct {
	ID            int       `json:"id"`
	OrderNumber   int       `json:"order_number"`
	OrderType     string    `json:"order_type"`
	PaymentMethod string    `json:"payment_method"`
	TotalAmount   float64   `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// TopItem is one row of the best-seller list.
type TopItem struct {
	Name         string  `json:"name"`
	QuantitySold int     `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

// DailyReport covers one calendar day of completed orders.
type DailyReport struct {
	Date     string        `json:"date"`
	Summary  SalesSummary  `json:"summary"`
	Orders   []ReportOrder `json:"orders"`
	TopItems []TopItem     `json:"top_items"`
}

// DayTotals is one day inside the weekly report. Days with no sales are
// present with zero totals.
type DayTotals struct {
	Date       string  `json:"date"`
	TotalSales float64 `json:"total_sales"`
	OrderCount int     `json:"order_count"`
	TaxTotal   float64 `json:"tax_total"`
	Discounts  float64 `json:"discounts"`
}

// WeeklyReport covers seven consecutive days starting at WeekStart.
type WeeklyReport struct {
	WeekStart  string      `json:"week_start"`
	Days       []DayTotals `json:"days"`
	TotalSales float64     `json:"total_sales"`
	OrderCount int         `json:"order_count"`
}

// BillerReport is one operator's completed orders for a day.
type BillerReport struct {
	BillerID int           `json:"biller_id"`
	Date     string        `json:"date"`
	Summary  SalesSummary  `json:"summary"`
	Orders   []ReportOrder `json:"orders"`
}

// Service computes sales reports from the database.
type Service struct {
	db     *database.DB
	logger *logger.Logger
}

// NewService creates a new reports service.
func NewService(db *database.DB, log *logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

// Daily builds the report for one calendar day.
func (s *Service) Daily(ctx context.Context, date time.Time) (*DailyReport, error) {
	day := date.Format("2006-01-02")

	summary, err := s.querySummary(ctx, database.DailySalesSQL, day)
	if err != nil {
		return nil, err
	}

	orders, err := s.queryOrders(ctx, database.DailyOrdersSQL, day)
	if err != nil {
		return nil, err
	}

	topItems, err := s.queryTopItems(ctx, day)
	if err != nil {
		return nil, err
	}

	return &DailyReport{
		Date:     day,
		Summary:  *summary,
		Orders:   orders,
		TopItems: topItems,
	}, nil
}

// Weekly builds a seven-day report starting at weekStart. Every day appears
// even when nothing was sold.
func (s *Service) Weekly(ctx context.Context, weekStart time.Time) (*WeeklyReport, error) {
	start := weekStart.Format("2006-01-02")

	rows, err := s.db.Query(ctx, database.WeeklyAggregateSQL, start)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly aggregates: %w", err)
	}
	defer rows.Close()

	byDate := make(map[string]DayTotals)
	for rows.Next() {
		var day time.Time
		var totals DayTotals
		err := rows.Scan(&day, &totals.TotalSales, &totals.OrderCount, &totals.TaxTotal, &totals.Discounts)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly aggregate: %w", err)
		}
		totals.Date = day.Format("2006-01-02")
		byDate[totals.Date] = totals
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report := &WeeklyReport{WeekStart: start}
	for i := 0; i < 7; i++ {
		date := weekStart.AddDate(0, 0, i).Format("2006-01-02")
		totals, ok := byDate[date]
		if !ok {
			totals = DayTotals{Date: date}
		}
		report.Days = append(report.Days, totals)
		report.TotalSales += totals.TotalSales
		report.OrderCount += totals.OrderCount
	}
	return report, nil
}

// BillerDaily builds one operator's report for a day.
func (s *Service) BillerDaily(ctx context.Context, billerID int, date time.Time) (*BillerReport, error) {
	day := date.Format("2006-01-02")

	summary, err := s.querySummary(ctx, database.BillerDailySalesSQL, day, billerID)
	if err != nil {
		return nil, err
	}

	orders, err := s.queryOrders(ctx, database.BillerDailyOrdersSQL, day, billerID)
	if err != nil {
		return nil, err
	}

	return &BillerReport{
		BillerID: billerID,
		Date:     day,
		Summary:  *summary,
		Orders:   orders,
	}, nil
}

func (s *Service) querySummary(ctx context.Context, sql string, args ...interface{}) (*SalesSummary, error) {
	var summary SalesSummary
	err := s.db.QueryRow(ctx, sql, args...).Scan(
		&summary.TotalSales, &summary.OrderCount,
		&summary.CashSales, &summary.CardSales, &summary.UPISales)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales summary: %w", err)
	}
	return &summary, nil
}

func (s *Service) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]ReportOrder, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query report orders: %w", err)
	}
	defer rows.Close()

	orders := []ReportOrder{}
	for rows.Next() {
		var o ReportOrder
		var orderType models.OrderType
		var method *string
		err := rows.Scan(&o.ID, &o.OrderNumber, &orderType, &method, &o.TotalAmount, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report order: %w", err)
		}
		o.OrderType = string(orderType)
		if method != nil {
			o.PaymentMethod = *method
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Service) queryTopItems(ctx context.Context, day string) ([]TopItem, error) {
	rows, err := s.db.Query(ctx, database.DailyTopItemsSQL, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query top items: %w", err)
	}
	defer rows.Close()

	items := []TopItem{}
	for rows.Next() {
		var item TopItem
		if err := rows.Scan(&item.Name, &item.QuantitySold, &item.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

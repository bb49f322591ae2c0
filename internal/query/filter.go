// Package query filters order listings by search text, status and date
// range, and derives the dashboard summary. Filtering is pure: the same
// inputs always produce the same output regardless of input order.
package query

import (
	"strconv"
	"strings"
	"time"

	"restaurant-pos/internal/models"
)

// DateRange selects how far back from "now" the listing reaches.
type DateRange string

const (
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeAll   DateRange = "all"
)

// StatusAll matches every status in the status filter.
const StatusAll = "all"

// Filters holds the three independent listing predicates. An order is
// returned only when it satisfies all of them.
type Filters struct {
	Search string
	Status string
	Range  DateRange
}

// Apply returns the orders matching all filters, evaluated against now.
// The week and month ranges are rolling windows from now; today is the
// calendar day of now.
func Apply(orders []models.Order, f Filters, now time.Time) []models.Order {
	matched := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if matchesSearch(&order, f.Search) && matchesStatus(&order, f.Status) && matchesRange(&order, f.Range, now) {
			matched = append(matched, order)
		}
	}
	return matched
}

func matchesSearch(order *models.Order, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strconv.Itoa(order.OrderNumber), q) ||
		strings.Contains(strings.ToLower(order.CustomerName), q) ||
		strings.Contains(order.CustomerPhone, q)
}

func matchesStatus(order *models.Order, status string) bool {
	if status == "" || status == StatusAll {
		return true
	}
	return string(order.Status) == status
}

func matchesRange(order *models.Order, r DateRange, now time.Time) bool {
	switch r {
	case RangeToday:
		y1, m1, d1 := order.CreatedAt.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case RangeWeek:
		return !order.CreatedAt.Before(now.AddDate(0, 0, -7))
	case RangeMonth:
		return !order.CreatedAt.Before(now.AddDate(0, -1, 0))
	default:
		return true
	}
}

// Summary aggregates a filtered listing for the dashboard cards.
type Summary struct {
	TotalOrders    int     `json:"total_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	ActiveOrders   int     `json:"active_orders"`
	CompletedCount int     `json:"completed_orders"`
}

// Summarize computes the dashboard summary. An order counts as active
// when its status needs operator attention (active or held); this is the
// authoritative notion of "active" for the dashboard.
func Summarize(orders []models.Order) Summary {
	var s Summary
	for _, order := range orders {
		s.TotalOrders++
		s.TotalRevenue += order.TotalAmount
		if order.Status.IsAttentionStatus() {
			s.ActiveOrders++
		}
		if order.Status == models.StatusCompleted {
			s.CompletedCount++
		}
	}
	return s
}

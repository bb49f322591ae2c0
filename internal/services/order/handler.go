package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"restaurant-pos/internal/checkout"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/query"
)

// Handler exposes the order service over HTTP.
type Handler struct {
	service *Service
	printer checkout.PrintService
	logger  *logger.Logger
}

// NewHandler creates a new order HTTP handler.
func NewHandler(service *Service, printer checkout.PrintService, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		printer: printer,
		logger:  log,
	}
}

// Register mounts the order routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/orders", h.CreateOrder)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/recent", h.RecentOrders)
	e.GET("/orders/:id", h.GetOrder)
	e.PUT("/orders/:id", h.UpdateOrder)
	e.DELETE("/orders/:id", h.DeleteOrder)
	e.POST("/orders/:id/complete", h.CompleteOrder)
	e.POST("/orders/:id/reprint", h.ReprintReceipt)
	e.GET("/orders/:id/history", h.StatusHistory)
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(c echo.Context) error {
	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Create(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, ErrDuplicateRequest) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListOrders handles GET /orders with optional search, status and range
// filters. Filters combine with AND; the summary covers the filtered set.
func (h *Handler) ListOrders(c echo.Context) error {
	orders, err := h.service.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}

	filters := query.Filters{
		Search: c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Range:  query.DateRange(c.QueryParam("range")),
	}
	if filters.Status == "" {
		filters.Status = query.StatusAll
	}
	if filters.Range == "" {
		filters.Range = query.RangeAll
	}

	filtered := query.Apply(orders, filters, time.Now())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders":  filtered,
		"summary": query.Summarize(filtered),
	})
}

// RecentOrders handles GET /orders/recent.
func (h *Handler) RecentOrders(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	orders, err := h.service.GetRecent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /orders/:id.
func (h *Handler) GetOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrder handles PUT /orders/:id.
func (h *Handler) UpdateOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req models.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.service.Update(c.Request().Context(), id, &req, 0)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, ErrOrderNotEditable), errors.Is(err, ErrIllegalTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/:id.
func (h *Handler) DeleteOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return h.orderError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteOrder handles POST /orders/:id/complete.
func (h *Handler) CompleteOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Complete(c.Request().Context(), id, method); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusConflict, "order not found or already closed")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to complete order")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "completed"})
}

// ReprintReceipt handles POST /orders/:id/reprint. Reprinting never changes
// the order; it only dispatches another receipt job.
func (h *Handler) ReprintReceipt(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.orderError(err)
	}

	if err := h.printer.PrintReceipt(c.Request().Context(), order); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to dispatch receipt")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "receipt_queued"})
}

// StatusHistory handles GET /orders/:id/history.
func (h *Handler) StatusHistory(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	history, err := h.service.StatusHistory(c.Request().Context(), id)
	if err != nil {
		return h.orderError(err)
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) orderError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func orderID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

package terminal

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"restaurant-pos/internal/cart"
	"restaurant-pos/internal/checkout"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// Handler exposes terminal sessions over HTTP.
type Handler struct {
	manager *Manager
	logger  *logger.Logger
}

// NewHandler creates a new terminal HTTP handler.
func NewHandler(manager *Manager, log *logger.Logger) *Handler {
	return &Handler{manager: manager, logger: log}
}

// Register mounts the session routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/sessions", h.OpenSession)
	e.GET("/sessions/:id", h.GetSession)
	e.DELETE("/sessions/:id", h.CloseSession)

	e.POST("/sessions/:id/items", h.AddItem)
	e.PUT("/sessions/:id/items/:itemID", h.UpdateQuantity)
	e.DELETE("/sessions/:id/items/:itemID", h.RemoveItem)
	e.DELETE("/sessions/:id/items", h.ClearCart)
	e.PUT("/sessions/:id/details", h.SetDetails)

	e.POST("/sessions/:id/checkout", h.StartCheckout)
	e.POST("/sessions/:id/checkout/confirm", h.ConfirmInfo)
	e.POST("/sessions/:id/checkout/pay", h.Pay)
	e.POST("/sessions/:id/checkout/abandon", h.Abandon)
	e.GET("/sessions/:id/bill", h.ViewBill)
	e.POST("/sessions/:id/checkout/reprint", h.ReprintReceipt)
}

// OpenSession handles POST /sessions.
func (h *Handler) OpenSession(c echo.Context) error {
	var req struct {
		OperatorID int `json:"operator_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OperatorID < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "operator_id is required")
	}

	session := h.manager.Open(req.OperatorID)
	return c.JSON(http.StatusCreated, session.View())
}

// GetSession handles GET /sessions/:id.
func (h *Handler) GetSession(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session.View())
}

// CloseSession handles DELETE /sessions/:id.
func (h *Handler) CloseSession(c echo.Context) error {
	if err := h.manager.Close(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// AddItem handles POST /sessions/:id/items. Adding an item that is already
// in the cart increments its quantity.
func (h *Handler) AddItem(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req struct {
		ItemID  int     `json:"item_id"`
		Name    string  `json:"name"`
		Price   float64 `json:"price"`
		TaxRate float64 `json:"tax_rate"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ItemID < 1 || req.Name == "" || req.Price < 0 || req.TaxRate < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "item_id, name and non-negative price are required")
	}

	err = session.Mutate(func(cart *cart.Cart) {
		cart.AddItem(toCartItem(req.ItemID, req.Name, req.Price, req.TaxRate))
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, session.View())
}

// UpdateQuantity handles PUT /sessions/:id/items/:itemID. A quantity of zero
// removes the line.
func (h *Handler) UpdateQuantity(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	itemID, err := intParam(c, "itemID")
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err = session.Mutate(func(cart *cart.Cart) {
		cart.UpdateQuantity(itemID, req.Quantity)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, session.View())
}

// RemoveItem handles DELETE /sessions/:id/items/:itemID.
func (h *Handler) RemoveItem(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	itemID, err := intParam(c, "itemID")
	if err != nil {
		return err
	}

	err = session.Mutate(func(cart *cart.Cart) {
		cart.RemoveItem(itemID)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, session.View())
}

// ClearCart handles DELETE /sessions/:id/items. The whole cart resets,
// including customer details and discount.
func (h *Handler) ClearCart(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	err = session.Mutate(func(cart *cart.Cart) {
		cart.Clear()
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, session.View())
}

// SetDetails handles PUT /sessions/:id/details. Nil fields are untouched.
func (h *Handler) SetDetails(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderType      *string  `json:"order_type,omitempty"`
		TableNumber    *string  `json:"table_number,omitempty"`
		CustomerName   *string  `json:"customer_name,omitempty"`
		CustomerPhone  *string  `json:"customer_phone,omitempty"`
		DiscountAmount *float64 `json:"discount_amount,omitempty"`
		Notes          *string  `json:"notes,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var orderType models.OrderType
	if req.OrderType != nil {
		orderType, err = models.ParseOrderType(*req.OrderType)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	err = session.Mutate(func(cart *cart.Cart) {
		if req.OrderType != nil {
			cart.SetOrderType(orderType)
		}
		if req.TableNumber != nil {
			cart.SetTableNumber(*req.TableNumber)
		}
		if req.CustomerName != nil {
			cart.SetCustomerName(*req.CustomerName)
		}
		if req.CustomerPhone != nil {
			cart.SetCustomerPhone(*req.CustomerPhone)
		}
		if req.DiscountAmount != nil {
			cart.SetDiscount(*req.DiscountAmount)
		}
		if req.Notes != nil {
			cart.SetNotes(*req.Notes)
		}
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, session.View())
}

// StartCheckout handles POST /sessions/:id/checkout.
func (h *Handler) StartCheckout(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}

	co, err := session.StartCheckout(h.manager)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"checkout_state": co.State(),
	})
}

// ConfirmInfo handles POST /sessions/:id/checkout/confirm.
func (h *Handler) ConfirmInfo(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	co, err := session.Checkout()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	if err := co.ConfirmCustomerInfo(); err != nil {
		return checkoutError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"checkout_state": co.State(),
	})
}

// Pay handles POST /sessions/:id/checkout/pay. The response always carries
// the pipeline result, including partial progress on failure.
func (h *Handler) Pay(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	co, err := session.Checkout()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
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

	result, err := co.Pay(c.Request().Context(), method)
	if err != nil {
		if errors.Is(err, checkout.ErrPaymentInProgress) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if errors.Is(err, checkout.ErrInvalidState) || errors.Is(err, checkout.ErrEmptyCart) {
			return checkoutError(err)
		}
		// Pipeline failure: report the partial outcome with the error.
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"result":      result,
			"failed_step": result.FailedStep.String(),
			"error":       err.Error(),
		})
	}
	return c.JSON(http.StatusOK, result)
}

// Abandon handles POST /sessions/:id/checkout/abandon.
func (h *Handler) Abandon(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	co, err := session.Checkout()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	if err := co.Abandon(); err != nil {
		return checkoutError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"checkout_state": co.State(),
	})
}

// ViewBill handles GET /sessions/:id/bill.
func (h *Handler) ViewBill(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	co, err := session.Checkout()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	order, err := co.ViewBill(c.Request().Context())
	if err != nil {
		return checkoutError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// ReprintReceipt handles POST /sessions/:id/checkout/reprint.
func (h *Handler) ReprintReceipt(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	co, err := session.Checkout()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	if err := co.ReprintReceipt(c.Request().Context()); err != nil {
		return checkoutError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "receipt_queued"})
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return session, nil
}

func checkoutError(err error) error {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrMissingCustomerInfo):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrInvalidState),
		errors.Is(err, checkout.ErrPaymentInProgress),
		errors.Is(err, checkout.ErrNoOrder):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func intParam(c echo.Context, name string) (int, error) {
	id := 0
	if err := echo.PathParamsBinder(c).Int(name, &id).BindError(); err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func toCartItem(id int, name string, price, taxRate float64) cart.Item {
	return cart.Item{ID: id, Name: name, Price: price, TaxRate: taxRate}
}

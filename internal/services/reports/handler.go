package reports

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"restaurant-pos/internal/logger"
)

// Handler exposes the reports service over HTTP.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new reports HTTP handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// Register mounts the report routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/reports/daily", h.DailyReport)
	e.GET("/reports/weekly", h.WeeklyReport)
	e.GET("/reports/biller/:id", h.BillerReport)
}

// DailyReport handles GET /reports/daily?date=2006-01-02. Defaults to today.
func (h *Handler) DailyReport(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted as 2006-01-02")
	}

	report, err := h.service.Daily(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("report_failed", "Failed to build daily report", "", err, nil)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build report")
	}
	return c.JSON(http.StatusOK, report)
}

// WeeklyReport handles GET /reports/weekly?start=2006-01-02. Defaults to the
// seven days ending today.
func (h *Handler) WeeklyReport(c echo.Context) error {
	start, err := parseDate(c.QueryParam("start"), time.Now().AddDate(0, 0, -6))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start must be formatted as 2006-01-02")
	}

	report, err := h.service.Weekly(c.Request().Context(), start)
	if err != nil {
		h.logger.Error("report_failed", "Failed to build weekly report", "", err, nil)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build report")
	}
	return c.JSON(http.StatusOK, report)
}

// BillerReport handles GET /reports/biller/:id?date=2006-01-02.
func (h *Handler) BillerReport(c echo.Context) error {
	billerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || billerID < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid biller id")
	}

	date, err := parseDate(c.QueryParam("date"), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be formatted as 2006-01-02")
	}

	report, err := h.service.BillerDaily(c.Request().Context(), billerID, date)
	if err != nil {
		h.logger.Error("report_failed", "Failed to build biller report", "", err, nil)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build report")
	}
	return c.JSON(http.StatusOK, report)
}

func parseDate(param string, fallback time.Time) (time.Time, error) {
	if param == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", param)
}

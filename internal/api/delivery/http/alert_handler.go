package http

import (
	"net/http"
	"strconv"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertHandler handles HTTP requests for event and price alerts.
type AlertHandler struct {
	alertService service.AlertService
	logger       *logger.Logger
}

func NewAlertHandler(alertService service.AlertService, logger *logger.Logger) *AlertHandler {
	return &AlertHandler{alertService: alertService, logger: logger}
}

// RegisterRoutes registers the alert routes to the Echo group.
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListAlerts)
	g.POST("/event", h.SetEventAlert)
	g.POST("/price", h.CreatePriceAlert)
	g.DELETE("/:id", h.DeleteAlert)
	g.POST("/:id/toggle", h.ToggleAlert)
}

// RegisterAssetRoutes registers the asset lookup used by the price alert form.
func (h *AlertHandler) RegisterAssetRoutes(g *echo.Group) {
	g.GET("/suggestions", h.AssetSuggestions)
}

// SetEventAlert godoc
// @Summary Set an event alert
// @Description Creates the caller's alert for an event, or updates the active one
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   alert body dto.SetAlertRequest true "Alert"
// @Success 200 {object} dto.SetAlertResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alerts/event [post]
func (h *AlertHandler) SetEventAlert(c echo.Context) error {
	var req dto.SetAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.alertService.SetEventAlert(c.Request().Context(), sessionFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to set alert")
	}
	return c.JSON(http.StatusOK, resp)
}

// CreatePriceAlert godoc
// @Summary Create a price alert
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   alert body dto.PriceAlertRequest true "Price alert"
// @Success 201 {object} dto.AlertResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/price [post]
func (h *AlertHandler) CreatePriceAlert(c echo.Context) error {
	var req dto.PriceAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.alertService.CreatePriceAlert(c.Request().Context(), sessionFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create alert")
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListAlerts godoc
// @Summary List alerts
// @Description The caller's alerts, newest first, truncated unless show_all
// @Tags alerts
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   show_all query bool false "Return every alert"
// @Success 200 {object} dto.AlertListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /alerts [get]
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	showAll, _ := strconv.ParseBool(c.QueryParam("show_all"))
	resp, err := h.alertService.ListAlerts(c.Request().Context(), sessionFrom(c), showAll)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list alerts")
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteAlert godoc
// @Summary Delete an alert
// @Description Deleting a missing alert succeeds
// @Tags alerts
// @Param   X-Session-Token header string true "Session token"
// @Param   id path int true "Alert ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /alerts/{id} [delete]
func (h *AlertHandler) DeleteAlert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid alert ID"})
	}
	if err := h.alertService.DeleteAlert(c.Request().Context(), sessionFrom(c), uint(id)); err != nil {
		return respondError(c, h.logger, err, "Failed to delete alert")
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleAlert godoc
// @Summary Activate or deactivate an alert
// @Tags alerts
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   id path int true "Alert ID"
// @Success 200 {object} dto.AlertResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id}/toggle [post]
func (h *AlertHandler) ToggleAlert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid alert ID"})
	}
	resp, err := h.alertService.ToggleAlertActive(c.Request().Context(), sessionFrom(c), uint(id))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to toggle alert")
	}
	return c.JSON(http.StatusOK, resp)
}

// AssetSuggestions godoc
// @Summary Asset suggestions
// @Description Up to eight assets whose symbol or name matches
// @Tags alerts
// @Produce  json
// @Param   q query string true "Query"
// @Success 200 {array} dto.AssetResponse
// @Router /assets/suggestions [get]
func (h *AlertHandler) AssetSuggestions(c echo.Context) error {
	assets, err := h.alertService.AssetSuggestions(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load assets")
	}
	return c.JSON(http.StatusOK, assets)
}

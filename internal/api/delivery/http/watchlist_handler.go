package http

import (
	"net/http"
	"strconv"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type WatchlistHandler struct {
	watchlistService service.WatchlistService
	logger           *logger.Logger
}

func NewWatchlistHandler(watchlistService service.WatchlistService, logger *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlistService: watchlistService, logger: logger}
}

func (h *WatchlistHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListWatchlist)
	g.POST("/toggle", h.ToggleWatchlist)
	g.DELETE("/:id", h.RemoveItem)
	g.POST("/:id/alert", h.CreateAlert)
}

// ToggleWatchlist godoc
// @Summary Toggle an event in the watchlist
// @Tags watchlist
// @Accept  json
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   body body dto.ToggleWatchlistRequest true "Event"
// @Success 200 {object} dto.ToggleWatchlistResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /watchlist/toggle [post]
func (h *WatchlistHandler) ToggleWatchlist(c echo.Context) error {
	var req dto.ToggleWatchlistRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.watchlistService.ToggleWatchlist(c.Request().Context(), sessionFrom(c), req.EventID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update watchlist")
	}
	return c.JSON(http.StatusOK, resp)
}

// ListWatchlist godoc
// @Summary List the watchlist
// @Description Items whose event or asset was removed are returned with available=false
// @Tags watchlist
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   type query string false "event or asset"
// @Success 200 {array} dto.WatchlistItemResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /watchlist [get]
func (h *WatchlistHandler) ListWatchlist(c echo.Context) error {
	items, err := h.watchlistService.ListWatchlist(c.Request().Context(), sessionFrom(c), c.QueryParam("type"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load watchlist")
	}
	return c.JSON(http.StatusOK, items)
}

// RemoveItem godoc
// @Summary Remove a watchlist item
// @Tags watchlist
// @Param   X-Session-Token header string true "Session token"
// @Param   id path int true "Watchlist item ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /watchlist/{id} [delete]
func (h *WatchlistHandler) RemoveItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid watchlist item ID"})
	}
	if err := h.watchlistService.Remove(c.Request().Context(), sessionFrom(c), uint(id)); err != nil {
		return respondError(c, h.logger, err, "Failed to remove watchlist item")
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateAlert godoc
// @Summary Create an alert from a watchlist item
// @Description onRelease for events, crossesAbove for assets
// @Tags watchlist
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   id path int true "Watchlist item ID"
// @Success 201 {object} dto.AlertResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /watchlist/{id}/alert [post]
func (h *WatchlistHandler) CreateAlert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid watchlist item ID"})
	}
	resp, err := h.watchlistService.CreateAlertFromWatchlist(c.Request().Context(), sessionFrom(c), uint(id))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create alert")
	}
	return c.JSON(http.StatusCreated, resp)
}

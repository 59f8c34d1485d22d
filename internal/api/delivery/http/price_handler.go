package http

import (
	"net/http"

	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PriceHandler struct {
	priceService service.PriceService
	logger       *logger.Logger
}

func NewPriceHandler(priceService service.PriceService, logger *logger.Logger) *PriceHandler {
	return &PriceHandler{priceService: priceService, logger: logger}
}

func (h *PriceHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetPrices)
}

// GetPrices godoc
// @Summary Price ticker
// @Description Latest quotes. Sample data is flagged with fallback=true, old data with stale=true.
// @Tags prices
// @Produce  json
// @Success 200 {object} dto.PriceTickerResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /prices [get]
func (h *PriceHandler) GetPrices(c echo.Context) error {
	resp, err := h.priceService.Ticker(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load prices")
	}
	return c.JSON(http.StatusOK, resp)
}

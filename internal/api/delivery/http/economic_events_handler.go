package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/eodhd"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EconomicEventsHandler proxies the upstream economic calendar.
type EconomicEventsHandler struct {
	economicEventsService service.EconomicEventsService
	logger                *logger.Logger
}

func NewEconomicEventsHandler(economicEventsService service.EconomicEventsService, logger *logger.Logger) *EconomicEventsHandler {
	return &EconomicEventsHandler{economicEventsService: economicEventsService, logger: logger}
}

func (h *EconomicEventsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/economic-events", h.GetEconomicEvents)
}

// GetEconomicEvents godoc
// @Summary Economic events proxy
// @Description Forwards to EODHD. from/to default to today-7d and today+30d (UTC).
// @Tags economic-events
// @Produce  json
// @Param   from    query string false "YYYY-MM-DD"
// @Param   to      query string false "YYYY-MM-DD"
// @Param   country query string false "Country code"
// @Param   limit   query int    false "Limit"
// @Param   offset  query int    false "Offset"
// @Success 200 {object} dto.EconomicEventsResponse
// @Failure 500 {object} dto.UpstreamErrorResponse
// @Router /economic-events [get]
func (h *EconomicEventsHandler) GetEconomicEvents(c echo.Context) error {
	var q dto.EconomicEventsQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, dto.UpstreamErrorResponse{OK: false, Error: "Invalid query parameters"})
	}

	resp, err := h.economicEventsService.List(c.Request().Context(), q)
	if err != nil {
		var statusErr *eodhd.StatusError
		if errors.As(err, &statusErr) {
			h.logger.Warn("EODHD returned an error", logger.IntField("status", statusErr.StatusCode))
			return c.JSON(statusErr.StatusCode, dto.UpstreamErrorResponse{OK: false, Error: upstreamBody(statusErr.Body)})
		}
		if !errors.Is(err, eodhd.ErrMissingToken) {
			h.logger.Error("Failed to fetch economic events", logger.ErrorField(err))
		}
		return c.JSON(http.StatusInternalServerError, dto.UpstreamErrorResponse{OK: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// upstreamBody returns the body as JSON when it parses, otherwise as text.
func upstreamBody(body []byte) interface{} {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed
	}
	return string(body)
}

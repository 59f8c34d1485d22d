package http

import (
	"net/http"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CalendarHandler serves the economic calendar.
type CalendarHandler struct {
	calendarService service.CalendarService
	logger          *logger.Logger
}

func NewCalendarHandler(calendarService service.CalendarService, logger *logger.Logger) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService, logger: logger}
}

// RegisterRoutes registers the calendar routes to the Echo group.
func (h *CalendarHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetCalendar)
	g.GET("/suggestions", h.GetSuggestions)
}

// GetCalendar godoc
// @Summary Get the economic calendar
// @Description Filtered events decorated with the caller's alerts and watchlist
// @Tags calendar
// @Produce  json
// @Param   X-Session-Token header string false "Session token"
// @Param   search      query string false "Search in title, currency or country"
// @Param   importance  query []int  false "Importance levels (1-3)" collectionFormat(multi)
// @Param   category    query string false "Category or all"
// @Param   date_range  query string false "all, today, thisWeek, nextWeek or custom"
// @Param   custom_date query string false "YYYY-MM-DD, used with date_range=custom"
// @Param   show_all    query bool   false "Disable truncation"
// @Param   refresh     query bool   false "Refetch user data"
// @Param   timezone    query string false "IANA timezone"
// @Success 200 {object} dto.CalendarView
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /calendar [get]
func (h *CalendarHandler) GetCalendar(c echo.Context) error {
	var q dto.CalendarQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid query parameters"})
	}

	view, err := h.calendarService.Load(c.Request().Context(), sessionFrom(c), q)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load calendar")
	}
	if authStateFrom(c) == service.StateAuthenticating {
		view.AuthState = string(service.StateAuthenticating)
	}
	return c.JSON(http.StatusOK, view)
}

// GetSuggestions godoc
// @Summary Search suggestions
// @Description Up to five distinct event titles containing the query
// @Tags calendar
// @Produce  json
// @Param   q query string true "Query"
// @Success 200 {object} dto.SuggestionsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /calendar/suggestions [get]
func (h *CalendarHandler) GetSuggestions(c echo.Context) error {
	suggestions, err := h.calendarService.Suggestions(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load suggestions")
	}
	return c.JSON(http.StatusOK, dto.SuggestionsResponse{Suggestions: suggestions})
}

package http

import (
	"errors"
	"net/http"
	"strconv"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AnalysisHandler struct {
	analysisService service.AnalysisService
	logger          *logger.Logger
}

func NewAnalysisHandler(analysisService service.AnalysisService, logger *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService, logger: logger}
}

func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/:id/analysis", h.AnalyzeEvent)
}

// AnalyzeEvent godoc
// @Summary Analyse an event
// @Description Returns the stored analysis, generating it when missing or when force is set
// @Tags events
// @Accept  json
// @Produce  json
// @Param   id path int true "Event ID"
// @Param   body body dto.AnalysisRequest false "Language and timezone"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /events/{id}/analysis [post]
func (h *AnalysisHandler) AnalyzeEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid event ID"})
	}
	var req dto.AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}

	resp, err := h.analysisService.AnalyzeEvent(c.Request().Context(), uint(id), req)
	if errors.Is(err, repository.ErrAnalysisUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		return respondError(c, h.logger, err, "Failed to analyse event")
	}
	return c.JSON(http.StatusOK, resp)
}

package http

import (
	"errors"
	"net/http"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type TranslateHandler struct {
	translateService service.TranslateService
	logger           *logger.Logger
}

func NewTranslateHandler(translateService service.TranslateService, logger *logger.Logger) *TranslateHandler {
	return &TranslateHandler{translateService: translateService, logger: logger}
}

// RegisterRoutes accepts every method so that non-POST requests get a bare 405.
func (h *TranslateHandler) RegisterRoutes(g *echo.Group) {
	g.Any("/translate", h.Translate)
}

// Translate godoc
// @Summary Translate a text
// @Description Cached per language; identical concurrent requests share one upstream call
// @Tags translate
// @Accept  json
// @Produce  json
// @Param   body body dto.TranslateRequest true "Text and target language (default ar)"
// @Success 200 {object} dto.TranslateResponse
// @Failure 400 {object} dto.UpstreamErrorResponse
// @Failure 405
// @Failure 500 {object} dto.UpstreamErrorResponse
// @Router /translate [post]
func (h *TranslateHandler) Translate(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.NoContent(http.StatusMethodNotAllowed)
	}

	var req dto.TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.UpstreamErrorResponse{OK: false, Error: "Invalid request body"})
	}

	resp, err := h.translateService.Translate(c.Request().Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, dto.UpstreamErrorResponse{OK: false, Error: verr.Message})
		}
		return c.JSON(http.StatusInternalServerError, dto.UpstreamErrorResponse{OK: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

package http

import (
	"net/http"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type ContactHandler struct {
	contactService service.ContactService
	logger         *logger.Logger
}

func NewContactHandler(contactService service.ContactService, logger *logger.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, logger: logger}
}

func (h *ContactHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Submit)
}

// Submit godoc
// @Summary Send a contact message
// @Description Stored and forwarded to the operator; delivery failures do not fail the request
// @Tags contact
// @Accept  json
// @Produce  json
// @Param   message body dto.ContactRequest true "Message"
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /contact [post]
func (h *ContactHandler) Submit(c echo.Context) error {
	var req dto.ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.contactService.Submit(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to send message")
	}
	return c.JSON(http.StatusCreated, resp)
}

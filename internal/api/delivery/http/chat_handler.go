package http

import (
	"errors"
	"net/http"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	chatService service.ChatService
	logger      *logger.Logger
}

func NewChatHandler(chatService service.ChatService, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, logger: logger}
}

func (h *ChatHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Chat)
}

// Chat godoc
// @Summary Ask the market assistant
// @Tags chat
// @Accept  json
// @Produce  json
// @Param   body body dto.ChatRequest true "Message and recent history"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 500 {object} dto.ChatResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(c echo.Context) error {
	var req dto.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.chatService.Chat(c.Request().Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return respondError(c, h.logger, err, "")
		}
		if errors.Is(err, repository.ErrMissingOpenAIKey) {
			return c.JSON(http.StatusInternalServerError, dto.ChatResponse{Success: false, Response: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, dto.ChatResponse{Success: false, Response: "The assistant is unavailable, please try again later"})
	}
	return c.JSON(http.StatusOK, resp)
}

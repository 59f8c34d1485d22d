package http

import (
	"net/http"
	"strconv"

	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type NewsHandler struct {
	newsService service.NewsService
	logger      *logger.Logger
}

func NewNewsHandler(newsService service.NewsService, logger *logger.Logger) *NewsHandler {
	return &NewsHandler{newsService: newsService, logger: logger}
}

func (h *NewsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetNews)
}

// GetNews godoc
// @Summary Latest market news
// @Tags news
// @Produce  json
// @Param   limit query int false "Maximum number of articles (default 20)"
// @Success 200 {array} dto.NewsArticleResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news [get]
func (h *NewsHandler) GetNews(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	articles, err := h.newsService.Latest(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load news")
	}
	return c.JSON(http.StatusOK, articles)
}

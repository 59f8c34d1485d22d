package http

import (
	"net/http"
	"strconv"

	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *logger.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListNotifications)
	g.GET("/recent", h.RecentNotifications)
	g.POST("/:id/read", h.MarkRead)
	g.DELETE("", h.DeleteAll)
}

// ListNotifications godoc
// @Summary List notifications
// @Tags notifications
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   limit query int false "Maximum number of notifications"
// @Success 200 {array} dto.NotificationResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.notificationService.List(c.Request().Context(), sessionFrom(c), limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load notifications")
	}
	return c.JSON(http.StatusOK, items)
}

// RecentNotifications godoc
// @Summary Recent notifications
// @Description The last ten notifications, newest first
// @Tags notifications
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Success 200 {array} dto.RecentNotification
// @Failure 401 {object} dto.ErrorResponse
// @Router /notifications/recent [get]
func (h *NotificationHandler) RecentNotifications(c echo.Context) error {
	items, err := h.notificationService.Recent(c.Request().Context(), sessionFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load notifications")
	}
	return c.JSON(http.StatusOK, items)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Param   X-Session-Token header string true "Session token"
// @Param   id path int true "Notification ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid notification ID"})
	}
	if err := h.notificationService.MarkRead(c.Request().Context(), sessionFrom(c), uint(id)); err != nil {
		return respondError(c, h.logger, err, "Failed to update notification")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll godoc
// @Summary Delete every notification
// @Tags notifications
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Success 200 {object} map[string]int64
// @Failure 401 {object} dto.ErrorResponse
// @Router /notifications [delete]
func (h *NotificationHandler) DeleteAll(c echo.Context) error {
	deleted, err := h.notificationService.DeleteAll(c.Request().Context(), sessionFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete notifications")
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": deleted})
}

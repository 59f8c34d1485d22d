package service

import (
	"context"
	"errors"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
	"liirat-news/pkg/logger"
)

// NotificationService records user-facing notifications.
type NotificationService interface {
	Notify(ctx context.Context, userID, kind, message string)
	Recent(ctx context.Context, sess *session.Session) ([]dto.RecentNotification, error)
	List(ctx context.Context, sess *session.Session, limit int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, sess *session.Session, id uint) error
	DeleteAll(ctx context.Context, sess *session.Session) (int64, error)
}

func NewNotificationService(repo repository.NotificationRepository, recent repository.RecentNotificationRepository, log *logger.Logger) NotificationService {
	return &notificationService{repo: repo, recent: recent, logger: log}
}

type notificationService struct {
	repo   repository.NotificationRepository
	recent repository.RecentNotificationRepository
	logger *logger.Logger
}

// Notify is best effort: failures are logged and never fail the caller.
func (s *notificationService) Notify(ctx context.Context, userID, kind, message string) {
	n := &entity.Notification{UserID: userID, Type: kind, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("Failed to persist notification", logger.ErrorField(err), logger.StringField("user_id", userID))
	}
	entry := dto.RecentNotification{Type: kind, Message: message, CreatedAt: time.Now().UTC()}
	if err := s.recent.Push(ctx, userID, entry); err != nil {
		s.logger.Warn("Failed to push notification history", logger.ErrorField(err), logger.StringField("user_id", userID))
	}
}

func (s *notificationService) Recent(ctx context.Context, sess *session.Session) ([]dto.RecentNotification, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	return s.recent.List(ctx, sess.ID)
}

func (s *notificationService) List(ctx context.Context, sess *session.Session, limit int) ([]dto.NotificationResponse, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.repo.FindByUser(ctx, sess.ID, limit)
	if err != nil {
		s.logger.Error("Failed to list notifications", logger.ErrorField(err), logger.StringField("user_id", sess.ID))
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, dto.NotificationResponse{ID: n.ID, Type: n.Type, Message: n.Message, IsRead: n.IsRead, CreatedAt: n.CreatedAt})
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, sess *session.Session, id uint) error {
	if !sess.Valid() {
		return ErrUnauthenticated
	}
	err := s.repo.MarkRead(ctx, sess.ID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) DeleteAll(ctx context.Context, sess *session.Session) (int64, error) {
	if !sess.Valid() {
		return 0, ErrUnauthenticated
	}
	return s.repo.DeleteAllByUser(ctx, sess.ID)
}

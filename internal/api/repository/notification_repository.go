package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/entity"
	"liirat-news/pkg/common"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NotificationRepository persists notifications per user.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	FindByUser(ctx context.Context, userID string, limit int) ([]entity.Notification, error)
	MarkRead(ctx context.Context, userID string, id uint) error
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
}

// NewNotificationRepository creates a new GORM-based notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID string, limit int) ([]entity.Notification, error) {
	var items []entity.Notification
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID string, id uint) error {
	res := r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllByUser removes every notification of the user in one statement.
func (r *notificationRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.Notification{})
	return res.RowsAffected, res.Error
}

// RecentNotificationRepository keeps a capped, newest-first list per user.
type RecentNotificationRepository interface {
	Push(ctx context.Context, userID string, n dto.RecentNotification) error
	List(ctx context.Context, userID string) ([]dto.RecentNotification, error)
}

// NewRecentNotificationRepository creates a Redis list holding at most size entries per user.
func NewRecentNotificationRepository(client *redis.Client, size int) RecentNotificationRepository {
	if size <= 0 {
		size = common.NotificationHistory
	}
	return &recentNotificationRepository{client: client, size: size}
}

type recentNotificationRepository struct {
	client *redis.Client
	size   int
}

func (r *recentNotificationRepository) key(userID string) string {
	return common.RedisKeyNotificationHistory + ":" + userID
}

func (r *recentNotificationRepository) Push(ctx context.Context, userID string, n dto.RecentNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key(userID), string(data))
	pipe.LTrim(ctx, r.key(userID), 0, int64(r.size-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *recentNotificationRepository) List(ctx context.Context, userID string) ([]dto.RecentNotification, error) {
	raw, err := r.client.LRange(ctx, r.key(userID), 0, int64(r.size-1)).Result()
	if err != nil {
		return nil, err
	}
	items := make([]dto.RecentNotification, 0, len(raw))
	for _, s := range raw {
		var n dto.RecentNotification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			continue
		}
		items = append(items, n)
	}
	return items, nil
}

package repository

import (
	"context"

	"liirat-news/internal/entity"

	"gorm.io/gorm"
)

// ContactMessageRepository stores contact form submissions.
type ContactMessageRepository interface {
	Create(ctx context.Context, msg *entity.ContactMessage) error
	MarkDelivered(ctx context.Context, id uint) error
}

func NewContactMessageRepository(db *gorm.DB) ContactMessageRepository {
	return &contactMessageRepository{db: db}
}

type contactMessageRepository struct {
	db *gorm.DB
}

func (r *contactMessageRepository) Create(ctx context.Context, msg *entity.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *contactMessageRepository) MarkDelivered(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.ContactMessage{}).Where("id = ?", id).Update("delivered", true).Error
}

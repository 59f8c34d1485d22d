package repository

import (
	"context"
	"time"

	"liirat-news/internal/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssetRepository reads tracked assets and writes their latest prices.
type AssetRepository interface {
	FindAll(ctx context.Context) ([]entity.Asset, error)
	UpdatePrice(ctx context.Context, symbol string, price, changePercent decimal.Decimal, at time.Time) error
}

func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

type assetRepository struct {
	db *gorm.DB
}

func (r *assetRepository) FindAll(ctx context.Context) ([]entity.Asset, error) {
	var assets []entity.Asset
	if err := r.db.WithContext(ctx).Order("symbol").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) UpdatePrice(ctx context.Context, symbol string, price, changePercent decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Asset{}).
		Where("symbol = ?", symbol).
		Updates(map[string]interface{}{
			"latest_price":     price,
			"change_percent":   changePercent,
			"price_updated_at": at,
		}).Error
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"product-catalog/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// gormProductRepository implements ProductRepository on top of gorm, used for
// the embedded SQLite store.
type gormProductRepository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewGormProductRepository creates a gorm-backed product repository.
func NewGormProductRepository(db *gorm.DB, logger zerolog.Logger) ProductRepository {
	return &gormProductRepository{
		db:     db,
		logger: logger.With().Str("repository", "product-gorm").Logger(),
	}
}

func (r *gormProductRepository) FindAll(ctx context.Context, page, limit int) ([]model.Product, error) {
	products := []model.Product{}
	err := r.db.WithContext(ctx).
		Order("id").
		Limit(limit).
		Offset(offset(page, limit)).
		Find(&products).Error
	if err != nil {
		r.logger.Error().Err(err).Int("page", page).Int("limit", limit).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return products, nil
}

func (r *gormProductRepository) FindOne(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

func (r *gormProductRepository) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) Update(ctx context.Context, id int64, changes model.ProductChanges) error {
	if changes.IsEmpty() {
		return nil
	}

	columns := map[string]any{}
	if changes.Name != nil {
		columns["name"] = *changes.Name
	}
	if changes.Price != nil {
		columns["price"] = *changes.Price
	}
	if changes.Quantity != nil {
		columns["quantity"] = *changes.Quantity
	}
	if changes.Photo != nil {
		columns["photo"] = *changes.Photo
	}

	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(columns).Error
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

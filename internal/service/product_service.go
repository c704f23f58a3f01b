package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"product-catalog/internal/model"
	"product-catalog/internal/repository"
	"product-catalog/internal/storage"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	photos      storage.PhotoStore
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, photos storage.PhotoStore, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		photos:      photos,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// FindAll retrieves products with pagination.
func (s *productService) FindAll(ctx context.Context, page, limit int) ([]model.Product, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	ctx, span := tracer.Start(ctx, "ProductService FindAll",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("limit", limit)))
	defer span.End()

	products, err := s.productRepo.FindAll(ctx, page, limit)
	if err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).
			Int("page", page).
			Int("limit", limit).
			Msg("failed to find products")
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("page", page).
		Int("limit", limit).
		Msg("retrieved products")

	return products, nil
}

// FindOne retrieves a single product by ID.
func (s *productService) FindOne(ctx context.Context, id int64) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService FindOne",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := s.productRepo.FindOne(ctx, id)
	if err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to find product")
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
	}

	return product, nil
}

// Create saves the photo first and then inserts the row. A failed insert
// leaves the saved photo behind.
func (s *productService) Create(ctx context.Context, input model.CreateProductInput, photo model.PhotoUpload) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService Create")
	defer span.End()

	if input.Quantity <= 0 {
		recordError(span, model.ErrInvalidQuantity)
		return nil, model.ErrInvalidQuantity
	}

	filename, err := s.photos.Save(ctx, photo)
	if err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Str("photo", photo.OriginalName).Msg("failed to save product photo")
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	product := &model.Product{
		Name:     input.Name,
		Price:    input.Price,
		Quantity: input.Quantity,
		Photo:    filename,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Str("photo", filename).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID))
	s.logger.Info().
		Int64("product_id", product.ID).
		Str("name", product.Name).
		Int("quantity", product.Quantity).
		Msg("product created")

	return product, nil
}

// Update applies the supplied fields. An empty name, zero price or zero
// quantity counts as not supplied.
func (s *productService) Update(ctx context.Context, id int64, input model.UpdateProductInput, photo *model.PhotoUpload) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService Update",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	current, err := s.productRepo.FindOne(ctx, id)
	if err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to find product for update")
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if current == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	var changes model.ProductChanges
	if input.Name != nil && *input.Name != "" {
		changes.Name = input.Name
	}
	if input.Price != nil && !input.Price.IsZero() {
		changes.Price = input.Price
	}
	if input.Quantity != nil && *input.Quantity != 0 {
		changes.Quantity = input.Quantity
	}

	if photo != nil {
		s.deletePhoto(ctx, id, current.Photo)

		filename, err := s.photos.Save(ctx, *photo)
		if err != nil {
			recordError(span, err)
			s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to save replacement photo")
			return nil, fmt.Errorf("failed to save photo: %w", err)
		}
		changes.Photo = &filename
	}

	if !changes.IsEmpty() {
		if err := s.productRepo.Update(ctx, id, changes); err != nil {
			recordError(span, err)
			s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	updated, err := s.productRepo.FindOne(ctx, id)
	if err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to reload product")
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if updated == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	s.logger.Info().
		Int64("product_id", id).
		Bool("photo_replaced", photo != nil).
		Msg("product updated")

	return updated, nil
}

// Remove deletes the product when quantity covers the whole stock and
// decrements it otherwise. A negative quantity adds stock.
func (s *productService) Remove(ctx context.Context, id int64, quantity int) error {
	ctx, span := tracer.Start(ctx, "ProductService Remove",
		trace.WithAttributes(attribute.Int64("product.id", id), attribute.Int("quantity", quantity)))
	defer span.End()

	product, err := s.productRepo.FindOne(ctx, id)
	if err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to find product for removal")
		return fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError(id)
	}

	if quantity >= product.Quantity {
		s.deletePhoto(ctx, id, product.Photo)

		if err := s.productRepo.Delete(ctx, id); err != nil {
			recordError(span, err)
			s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
			return fmt.Errorf("failed to delete product: %w", err)
		}

		s.logger.Info().Int64("product_id", id).Msg("product deleted")
		return nil
	}

	// Stock lives in an INTEGER column.
	if int64(product.Quantity)-int64(quantity) > math.MaxInt32 {
		return model.ErrStockOutOfRange
	}

	remaining := product.Quantity - quantity
	if err := s.productRepo.Update(ctx, id, model.ProductChanges{Quantity: &remaining}); err != nil {
		recordError(span, err)
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product quantity")
		return fmt.Errorf("failed to update product quantity: %w", err)
	}

	s.logger.Info().
		Int64("product_id", id).
		Int("removed", quantity).
		Int("remaining", remaining).
		Msg("product stock reduced")

	return nil
}

// deletePhoto removes a stored photo. Failures are logged and otherwise ignored.
func (s *productService) deletePhoto(ctx context.Context, id int64, filename string) {
	if err := s.photos.Delete(ctx, filename); err != nil {
		event := s.logger.Error()
		if errors.Is(err, model.ErrPhotoNotFound) {
			event = s.logger.Warn()
		}
		event.Err(err).
			Int64("product_id", id).
			Str("photo", filename).
			Msg("failed to delete product photo")
	}
}

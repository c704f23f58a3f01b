package service

import (
	"context"

	"product-catalog/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pagination defaults applied by FindAll.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var tracer = otel.Tracer("product-catalog/internal/service")

// ProductService defines operations for product management.
type ProductService interface {
	// FindAll retrieves a page of products ordered by id.
	FindAll(ctx context.Context, page, limit int) ([]model.Product, error)

	// FindOne retrieves a single product by ID.
	// Returns nil without error when the product does not exist.
	FindOne(ctx context.Context, id int64) (*model.Product, error)

	// Create stores the photo and inserts the product referencing it.
	Create(ctx context.Context, input model.CreateProductInput, photo model.PhotoUpload) (*model.Product, error)

	// Update overwrites the supplied fields, replacing the photo when one is
	// given, and returns the stored product afterwards.
	Update(ctx context.Context, id int64, input model.UpdateProductInput, photo *model.PhotoUpload) (*model.Product, error)

	// Remove takes quantity units out of stock. When nothing would be left the
	// product and its photo are deleted.
	Remove(ctx context.Context, id int64, quantity int) error
}

// recordError marks the span as failed.
func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

package repository

import (
	"context"

	"product-catalog/internal/model"
)

// ProductRepository defines the interface for product data access operations.
// Every call commits on its own; no operation spans a transaction.
type ProductRepository interface {
	// FindAll retrieves products ordered by id, skipping (page-1)*limit rows and taking limit.
	FindAll(ctx context.Context, page, limit int) ([]model.Product, error)

	// FindOne retrieves a single product by its ID.
	// Returns nil without error when the product does not exist.
	FindOne(ctx context.Context, id int64) (*model.Product, error)

	// Create inserts a new product and fills in its generated ID.
	Create(ctx context.Context, product *model.Product) error

	// Update overwrites only the columns set in changes.
	Update(ctx context.Context, id int64, changes model.ProductChanges) error

	// Delete removes the product row. Deleting a missing row is not an error.
	Delete(ctx context.Context, id int64) error
}

// offset converts a 1-based page into a row offset.
func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

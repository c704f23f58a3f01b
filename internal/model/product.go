package model

import (
	"encoding/json"
	"io"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue entry backed by the product table.
type Product struct {
	ID       int64           `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name     string          `json:"name" db:"name" gorm:"not null"`
	Price    decimal.Decimal `json:"price" db:"price" gorm:"type:decimal(10,2);not null"`
	Quantity int             `json:"quantity" db:"quantity" gorm:"not null"`
	Photo    string          `json:"photo" db:"photo" gorm:"not null"`
}

// TableName pins the table name used by gorm.
func (Product) TableName() string {
	return "product"
}

// PriceScale is the number of decimal places stored for a price.
const PriceScale = 2

// MarshalJSON renders the price with exactly PriceScale decimals.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{
		product: product(p),
		Price:   p.Price.StringFixed(PriceScale),
	})
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// UpdateProductInput carries the optional fields of a product update.
// A nil pointer means the field was not supplied.
type UpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	Quantity *int
}

// ProductChanges lists the columns to overwrite on a stored product.
type ProductChanges struct {
	Name     *string
	Price    *decimal.Decimal
	Quantity *int
	Photo    *string
}

// IsEmpty reports whether no column would change.
func (c ProductChanges) IsEmpty() bool {
	return c.Name == nil && c.Price == nil && c.Quantity == nil && c.Photo == nil
}

// PhotoUpload is an uploaded photo waiting to be stored.
type PhotoUpload struct {
	OriginalName string
	Content      io.Reader
}

// DeleteResponse is returned after a successful removal.
type DeleteResponse struct {
	Success bool `json:"success"`
}

package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeInvalidForm     = "INVALID_FORM"
	ErrCodeInvalidPrice    = "INVALID_PRICE"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeStockOutOfRange = "STOCK_OUT_OF_RANGE"
	ErrCodePhotoRequired   = "PHOTO_REQUIRED"
	ErrCodePhotoNotFound   = "PHOTO_NOT_FOUND"
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewProductNotFoundError names the missing product id in its message.
func NewProductNotFoundError(id int64) *DomainError {
	return NewDomainError(ErrCodeProductNotFound, fmt.Sprintf("Product with id = %d not exists", id))
}

// Common domain errors
var (
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "product not found")
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "quantity must be > 0")
	ErrStockOutOfRange = NewDomainError(ErrCodeStockOutOfRange, "resulting quantity is out of range")
	ErrPhotoRequired   = NewDomainError(ErrCodePhotoRequired, "photo is required")
	ErrPhotoNotFound   = NewDomainError(ErrCodePhotoNotFound, "photo file not found")
)

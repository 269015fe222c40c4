package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrLockContention    = NewDomainError("LOCK_CONTENTION", "Resource is locked by another in-flight operation")
	ErrTimeout           = NewDomainError("TIMEOUT", "Operation exceeded its transaction deadline")
)

// InsufficientStockError carries the quantities behind an insufficient-stock
// failure so callers can report the exact shortfall.
type InsufficientStockError struct {
	MaterialID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %s: requested %s, available %s",
		e.MaterialID, e.Requested.String(), e.Available.String())
}

// Is makes errors.Is(err, ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Shortfall returns how much the request exceeded the available quantity
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(materialID string, requested, available decimal.Decimal) *InsufficientStockError {
	return &InsufficientStockError{
		MaterialID: materialID,
		Requested:  requested,
		Available:  available,
	}
}

// IsRetryable reports whether the caller may retry the failed operation.
// Lock contention and transaction timeouts clear once the competing
// transaction finishes; insufficient stock clears when new stock arrives or
// a smaller quantity is requested. Everything else indicates a caller bug or
// data inconsistency and must not be retried blindly.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockContention) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrInsufficientStock)
}

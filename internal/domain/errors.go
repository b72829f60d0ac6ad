package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// OutOfStockError means no batch could take the order line.
type OutOfStockError struct {
	SKU string
}

func (e OutOfStockError) Error() string {
	if e.SKU == "" {
		return "out of stock"
	}
	return fmt.Sprintf("out of stock for sku %s", e.SKU)
}

// Is enables errors.Is matching on OutOfStockError.
func (e OutOfStockError) Is(target error) bool {
	_, ok := target.(OutOfStockError)
	if ok {
		return true
	}
	_, ok = target.(*OutOfStockError)
	return ok
}

// ErrOutOfStock is the sentinel error for failed allocations.
var ErrOutOfStock = OutOfStockError{}

// InvalidInputError means the caller supplied a malformed line, spec or SKU.
type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	if e.Reason == "" {
		return "invalid input"
	}
	return e.Reason
}

// Is enables errors.Is matching on InvalidInputError.
func (e InvalidInputError) Is(target error) bool {
	_, ok := target.(InvalidInputError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidInputError)
	return ok
}

// ErrInvalidInput is the sentinel error for malformed input.
var ErrInvalidInput = InvalidInputError{}

// CurrencyError means two money values in different currencies were combined.
type CurrencyError struct {
	Left  string
	Right string
}

func (e CurrencyError) Error() string {
	return fmt.Sprintf("cannot combine %s with %s", e.Left, e.Right)
}

// Is enables errors.Is matching on CurrencyError.
func (e CurrencyError) Is(target error) bool {
	_, ok := target.(CurrencyError)
	if ok {
		return true
	}
	_, ok = target.(*CurrencyError)
	return ok
}

// ErrCurrencyMismatch is the sentinel error for mixed-currency arithmetic.
var ErrCurrencyMismatch = CurrencyError{}

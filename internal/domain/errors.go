package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock indicates an atomic conditional stock update
	// found fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports a rejected reservation together with
// the stock level observed after the attempt. Available may be slightly
// stale; it exists so callers can tell the user how many units remain.
type InsufficientStockError struct {
	Ref       ItemRef
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Ref.Key(), e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

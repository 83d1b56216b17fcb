package stock

import (
	"context"

	"parra-checkout/internal/domain"
)

// Repository is the only legal mutation path for stock counts. Every
// mutation is a single conditional statement at the store; there is no
// read-then-write anywhere in this package.
type Repository interface {
	// TryReserve decrements stock by quantity only if at least quantity
	// units remain. Returns domain.ErrInsufficientStock when the
	// conditional update matched no row with enough stock.
	TryReserve(ctx context.Context, ref domain.ItemRef, quantity int) error
	// Release restores quantity units. Callers issue at most one release
	// per logical removal; the increment itself is unconditional.
	Release(ctx context.Context, ref domain.ItemRef, quantity int) error
	// Decrement is the irreversible fulfillment-time variant of
	// TryReserve. Same conditional update, no paired release.
	Decrement(ctx context.Context, ref domain.ItemRef, quantity int) error
	// Available reads the current stock level. Not atomic with any
	// mutation; used only to report shortfalls.
	Available(ctx context.Context, ref domain.ItemRef) (int, error)
}

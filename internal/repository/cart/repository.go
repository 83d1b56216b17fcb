package cart

import (
	"context"

	"parra-checkout/internal/domain"
)

type Repository interface {
	// UpsertLine inserts the line or, if the session already holds the
	// same (product, variant) pair, increments its quantity. Returns the
	// resulting line.
	UpsertLine(ctx context.Context, line domain.CartLine) (*domain.CartLine, error)
	// SetQuantity overwrites a line's quantity.
	SetQuantity(ctx context.Context, sessionID string, ref domain.ItemRef, quantity int) error
	GetLine(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartLine, error)
	// DeleteLine removes the line and returns it as it was, so callers
	// know how many units to release.
	DeleteLine(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartLine, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	// DeleteAll clears the session and returns the removed lines.
	DeleteAll(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	// MergeSessions reassigns every guest line to the user session in a
	// single transaction, folding quantities into user lines that share
	// a line key. Returns the number of guest lines absorbed or moved.
	MergeSessions(ctx context.Context, guestSessionID, userSessionID string) (int, error)
}

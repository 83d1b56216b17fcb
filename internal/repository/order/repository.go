package order

import (
	"context"

	"parra-checkout/internal/domain"
)

type CreateOrderInput struct {
	PaymentReference string
	Email            string
	SessionID        *string
	Currency         string
	SubtotalCents    int64
	TotalCents       int64
	Items            []domain.OrderItem
}

type Repository interface {
	// Create inserts the order and its item snapshots in one
	// transaction. Returns domain.ErrAlreadyExists if an order with the
	// same payment reference exists; this is the storage backstop for
	// concurrent deliveries of the same event.
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByPaymentReference(ctx context.Context, paymentReference string) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID, status string) error
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
}

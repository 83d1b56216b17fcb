package domain

import "time"

const (
	OrderStatusPending = "pending"
	// OrderStatusNeedsReconciliation marks orders where a post-payment
	// stock decrement under-ran; the payment is captured, the shortfall
	// is resolved manually.
	OrderStatusNeedsReconciliation = "needs_reconciliation"
)

// Order is created exactly once per confirmed payment. PaymentReference
// is the idempotency key; at most one order may exist per reference,
// enforced by a unique constraint in storage.
type Order struct {
	ID               string      `json:"id"`
	PaymentReference string      `json:"paymentReference"`
	Email            string      `json:"email,omitempty"`
	SessionID        *string     `json:"-"`
	Status           string      `json:"status"`
	SubtotalCents    int64       `json:"subtotalCents"`
	TotalCents       int64       `json:"totalCents"`
	Currency         string      `json:"currency"`
	CreatedAt        time.Time   `json:"createdAt"`
	Items            []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots what was bought at confirmation time. Name, image
// and price are copied from the gateway's record, never recomputed from
// the live catalog.
type OrderItem struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"orderId"`
	ProductID      string  `json:"productId"`
	VariantID      *string `json:"variantId,omitempty"`
	Name           string  `json:"name"`
	Image          string  `json:"image,omitempty"`
	Size           string  `json:"size,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TotalCents     int64   `json:"totalCents"`
}

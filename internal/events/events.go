package events

import "time"

const (
	TopicOrderFulfilled = "order.fulfilled"
	TopicStockOversold  = "stock.oversold"
)

// Envelope wraps every published event with an id and timestamp so
// downstream consumers can dedup.
type Envelope struct {
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// OrderFulfilled is published once per order created by the
// fulfillment processor.
type OrderFulfilled struct {
	OrderID          string `json:"order_id"`
	PaymentReference string `json:"payment_reference"`
	Email            string `json:"email,omitempty"`
	TotalCents       int64  `json:"total_cents"`
	Currency         string `json:"currency"`
	LineCount        int    `json:"line_count"`
}

// StockOversold records a post-payment decrement shortfall; consumers
// feed manual reconciliation.
type StockOversold struct {
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	Available int     `json:"available"`
}

package payment

import "context"

// Event types delivered on the webhook. Everything else is
// acknowledged and ignored.
const EventCheckoutCompleted = "checkout.completed"

// Event is the decoded webhook body. Only the reference is trusted as
// an identifier; purchased lines are always re-fetched from the gateway
// via TransactionLines, never read from the event or the client.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Reference        string `json:"reference"`
	Email            string `json:"email,omitempty"`
	CartSessionID    string `json:"cartSessionId,omitempty"`
	AmountTotalCents int64  `json:"amountTotalCents"`
	Currency         string `json:"currency"`
}

// TransactionLine is the gateway's authoritative record of one
// purchased line at payment time.
type TransactionLine struct {
	ProductID      string  `json:"productId"`
	VariantID      *string `json:"variantId,omitempty"`
	Name           string  `json:"name"`
	Image          string  `json:"image,omitempty"`
	Size           string  `json:"size,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
}

type CheckoutSessionInput struct {
	Lines         []TransactionLine `json:"lines"`
	Email         string            `json:"email"`
	CartSessionID string            `json:"cartSessionId,omitempty"`
	Currency      string            `json:"currency"`
	SuccessURL    string            `json:"successUrl"`
	CancelURL     string            `json:"cancelUrl"`
}

// CheckoutSession is the hosted payment page the client is redirected
// to. Reference doubles as the payment reference on the later webhook.
type CheckoutSession struct {
	Reference string `json:"reference"`
	URL       string `json:"url"`
}

// Gateway is the payment provider surface the core depends on.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	// TransactionLines returns the expanded line-item detail of a
	// completed transaction.
	TransactionLines(ctx context.Context, reference string) ([]TransactionLine, error)
}

package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"parra-checkout/internal/domain"
	"parra-checkout/internal/events"
	"parra-checkout/internal/metrics"
	"parra-checkout/internal/payment"
	orderrepo "parra-checkout/internal/repository/order"
	stockrepo "parra-checkout/internal/repository/stock"
)

// Outcomes of one webhook delivery.
const (
	OutcomeFulfilled = "fulfilled"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

// ErrBadEvent marks deliveries rejected before any side effect:
// unparseable bodies and events missing a payment reference. The
// handler answers these with 400 so the gateway stops redelivering.
var ErrBadEvent = errors.New("bad event payload")

// Result reports what a delivery did.
type Result struct {
	Outcome string
	OrderID string
}

// Processor turns at-least-once, possibly out-of-order webhook
// deliveries into exactly one order and one stock decrement per
// purchased unit. The duplicate check runs before any mutation and the
// unique payment_reference constraint backs it against concurrent
// deliveries of the same event.
type Processor struct {
	orders   orderRepo
	ledger   ledger
	gateway  gateway
	producer producer
	metrics  *metrics.Checkout
	logger   *log.Logger

	secret    string
	tolerance time.Duration
	now       func() time.Time
}

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByPaymentReference(ctx context.Context, paymentReference string) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID, status string) error
}

type ledger interface {
	Decrement(ctx context.Context, ref domain.ItemRef, quantity int) error
	Available(ctx context.Context, ref domain.ItemRef) (int, error)
}

type gateway interface {
	TransactionLines(ctx context.Context, reference string) ([]payment.TransactionLine, error)
}

type producer interface {
	Publish(topic, key string, payload interface{})
}

func New(orders orderrepo.Repository, ledger stockrepo.Repository, gw payment.Gateway, prod *events.Producer, m *metrics.Checkout, secret string, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Processor{
		orders:    orders,
		ledger:    ledger,
		gateway:   gw,
		producer:  prod,
		metrics:   m,
		logger:    logger,
		secret:    secret,
		tolerance: payment.DefaultTolerance,
		now:       time.Now,
	}
}

// HandleEvent runs one delivery to a terminal state. Signature failure
// and malformed bodies reject without side effects; anything after the
// order insert is best-effort because the payment is already captured.
func (p *Processor) HandleEvent(ctx context.Context, payload []byte, sigHeader string) (*Result, error) {
	if err := payment.VerifySignature(payload, sigHeader, p.secret, p.tolerance, p.now()); err != nil {
		p.metrics.WebhookEvent("rejected")
		return nil, err
	}

	var event payment.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		p.metrics.WebhookEvent("rejected")
		return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if event.Type != payment.EventCheckoutCompleted {
		p.logger.Printf("fulfillment: ignoring event type=%s id=%s", event.Type, event.ID)
		p.metrics.WebhookEvent("ignored")
		return &Result{Outcome: OutcomeIgnored}, nil
	}
	reference := event.Data.Reference
	if reference == "" {
		p.metrics.WebhookEvent("rejected")
		return nil, fmt.Errorf("%w: missing payment reference", ErrBadEvent)
	}

	// Idempotency boundary: delivery is at-least-once, so look before
	// any mutating step.
	existing, err := p.orders.GetByPaymentReference(ctx, reference)
	if err == nil {
		p.logger.Printf("fulfillment: reference=%s already processed order=%s", reference, existing.ID)
		p.metrics.WebhookEvent("duplicate")
		return &Result{Outcome: OutcomeDuplicate, OrderID: existing.ID}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup order: %w", err)
	}

	lines, err := p.gateway.TransactionLines(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("reconstruct lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no transaction lines for %s", reference)
	}

	order, err := p.createOrder(ctx, event, reference, lines)
	if err != nil {
		return nil, err
	}
	if order == nil {
		// Lost the race against a concurrent delivery; the winner's
		// order is the order.
		winner, lookupErr := p.orders.GetByPaymentReference(ctx, reference)
		if lookupErr != nil {
			return nil, fmt.Errorf("lookup order after conflict: %w", lookupErr)
		}
		p.metrics.WebhookEvent("duplicate")
		return &Result{Outcome: OutcomeDuplicate, OrderID: winner.ID}, nil
	}

	p.decrementStock(ctx, order, lines)

	p.producer.Publish(events.TopicOrderFulfilled, reference, events.OrderFulfilled{
		OrderID:          order.ID,
		PaymentReference: reference,
		Email:            order.Email,
		TotalCents:       order.TotalCents,
		Currency:         order.Currency,
		LineCount:        len(order.Items),
	})
	p.metrics.WebhookEvent("fulfilled")
	p.logger.Printf("fulfillment: reference=%s order=%s items=%d", reference, order.ID, len(order.Items))
	return &Result{Outcome: OutcomeFulfilled, OrderID: order.ID}, nil
}

// createOrder inserts the order with item snapshots taken from the
// gateway's record. Returns (nil, nil) when the unique constraint says
// another delivery won.
func (p *Processor) createOrder(ctx context.Context, event payment.Event, reference string, lines []payment.TransactionLine) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	var subtotal int64
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Name:           line.Name,
			Image:          line.Image,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.UnitPriceCents * int64(line.Quantity),
		})
		subtotal += line.UnitPriceCents * int64(line.Quantity)
	}

	total := event.Data.AmountTotalCents
	if total == 0 {
		total = subtotal
	}
	var sessionID *string
	if event.Data.CartSessionID != "" {
		sessionID = &event.Data.CartSessionID
	}

	order, err := p.orders.Create(ctx, orderrepo.CreateOrderInput{
		PaymentReference: reference,
		Email:            event.Data.Email,
		SessionID:        sessionID,
		Currency:         event.Data.Currency,
		SubtotalCents:    subtotal,
		TotalCents:       total,
		Items:            items,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// decrementStock applies the irreversible per-line decrement. A
// shortfall here is an oversell: the customer already paid, so it is
// recorded for reconciliation instead of failing the delivery.
func (p *Processor) decrementStock(ctx context.Context, order *domain.Order, lines []payment.TransactionLine) {
	oversold := false
	for _, line := range lines {
		ref := domain.ItemRef{ProductID: line.ProductID, VariantID: line.VariantID}
		err := p.ledger.Decrement(ctx, ref, line.Quantity)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrInsufficientStock) {
			p.logger.Printf("fulfillment: decrement failed order=%s item=%s qty=%d: %v", order.ID, ref.Key(), line.Quantity, err)
			continue
		}
		available, availErr := p.ledger.Available(ctx, ref)
		if availErr != nil {
			available = 0
		}
		oversold = true
		p.metrics.Oversell()
		p.logger.Printf("fulfillment: OVERSELL order=%s item=%s requested=%d available=%d", order.ID, ref.Key(), line.Quantity, available)
		p.producer.Publish(events.TopicStockOversold, order.ID, events.StockOversold{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Available: available,
		})
	}
	if oversold {
		if err := p.orders.SetStatus(ctx, order.ID, domain.OrderStatusNeedsReconciliation); err != nil {
			p.logger.Printf("fulfillment: mark reconciliation order=%s: %v", order.ID, err)
		} else {
			order.Status = domain.OrderStatusNeedsReconciliation
		}
	}
}

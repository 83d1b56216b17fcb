package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"parra-checkout/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CartNotifier publishes cart change notifications. A notifier built
// over a nil client is a no-op, so wiring stays unconditional.
type CartNotifier struct {
	rdb    *redis.Client
	logger *log.Logger
}

func NewCartNotifier(rdb *redis.Client, logger *log.Logger) *CartNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CartNotifier{rdb: rdb, logger: logger}
}

// CartUpdated publishes the resulting line set for the session. Publish
// failures are logged, never surfaced: notifications are a convenience,
// not part of cart correctness.
func (n *CartNotifier) CartUpdated(ctx context.Context, sessionID string, lines []domain.CartLine) {
	if n == nil || n.rdb == nil {
		return
	}
	payload, err := json.Marshal(struct {
		SessionID string            `json:"sessionId"`
		LineItems []domain.CartLine `json:"lineItems"`
	}{SessionID: sessionID, LineItems: lines})
	if err != nil {
		n.logger.Printf("cart notifier: marshal session=%s error=%v", sessionID, err)
		return
	}
	channel := fmt.Sprintf(KeyCartUpdated, sessionID)
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		n.logger.Printf("cart notifier: publish session=%s error=%v", sessionID, err)
	}
}

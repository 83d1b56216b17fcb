package reservation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"parra-checkout/internal/domain"
	"parra-checkout/internal/metrics"
	stockrepo "parra-checkout/internal/repository/stock"
)

// Service is the reservation coordinator: the only caller of the stock
// ledger on the cart path. All atomicity lives in the ledger's
// conditional updates; this layer turns rejections into user-facing
// shortfall errors and keeps the counters.
type Service struct {
	ledger  ledger
	metrics *metrics.Checkout
	logger  *log.Logger
}

type ledger interface {
	TryReserve(ctx context.Context, ref domain.ItemRef, quantity int) error
	Release(ctx context.Context, ref domain.ItemRef, quantity int) error
	Available(ctx context.Context, ref domain.ItemRef) (int, error)
}

func New(ledger stockrepo.Repository, m *metrics.Checkout, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{ledger: ledger, metrics: m, logger: logger}
}

// Reserve claims quantity units. On rejection the current stock level
// is read back (non-atomically; a slightly stale count in an error
// message is fine, an oversold unit is not) and returned inside
// *domain.InsufficientStockError.
func (s *Service) Reserve(ctx context.Context, ref domain.ItemRef, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("reserve: quantity must be positive, got %d", quantity)
	}
	err := s.ledger.TryReserve(ctx, ref, quantity)
	if err == nil {
		s.metrics.Reservation("reserved")
		return nil
	}
	if !errors.Is(err, domain.ErrInsufficientStock) {
		s.metrics.Reservation("error")
		return err
	}

	available, availErr := s.ledger.Available(ctx, ref)
	if availErr != nil {
		if errors.Is(availErr, domain.ErrNotFound) {
			s.metrics.Reservation("error")
			return domain.ErrNotFound
		}
		// Keep the rejection; the count is advisory.
		s.logger.Printf("reservation: available read failed item=%s: %v", ref.Key(), availErr)
		available = 0
	}
	s.metrics.Reservation("rejected")
	return &domain.InsufficientStockError{Ref: ref, Requested: quantity, Available: available}
}

// Release restores quantity units. Callers own at-most-once semantics
// per logical removal; this method never retries on its own.
func (s *Service) Release(ctx context.Context, ref domain.ItemRef, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("release: quantity must be positive, got %d", quantity)
	}
	if err := s.ledger.Release(ctx, ref, quantity); err != nil {
		return err
	}
	s.metrics.Release()
	return nil
}

// Available exposes the current ledger count for read-only callers.
func (s *Service) Available(ctx context.Context, ref domain.ItemRef) (int, error) {
	return s.ledger.Available(ctx, ref)
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"parra-checkout/internal/domain"
	cartrepo "parra-checkout/internal/repository/cart"
	productrepo "parra-checkout/internal/repository/product"
)

// Service composes the reservation coordinator with the cart store.
// Stock is always claimed before a line becomes visible and given back
// when it shrinks; the ledger stays the single source of truth, carts
// are just bookkeeping on top.
type Service struct {
	repo         cartRepo
	products     productRepo
	reservations reserver
	releases     releaseEnqueuer
	notifier     notifier
	logger       *log.Logger
}

type cartRepo interface {
	UpsertLine(ctx context.Context, line domain.CartLine) (*domain.CartLine, error)
	SetQuantity(ctx context.Context, sessionID string, ref domain.ItemRef, quantity int) error
	GetLine(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartLine, error)
	DeleteLine(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartLine, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	DeleteAll(ctx context.Context, sessionID string) ([]domain.CartLine, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type reserver interface {
	Reserve(ctx context.Context, ref domain.ItemRef, quantity int) error
	Release(ctx context.Context, ref domain.ItemRef, quantity int) error
}

type releaseEnqueuer interface {
	Enqueue(ref domain.ItemRef, quantity int)
}

type notifier interface {
	CartUpdated(ctx context.Context, sessionID string, lines []domain.CartLine)
}

func New(repo cartrepo.Repository, products productrepo.Repository, reservations reserver, releases releaseEnqueuer, n notifier, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:         repo,
		products:     products,
		reservations: reservations,
		releases:     releases,
		notifier:     n,
		logger:       logger,
	}
}

type AddLineInput struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId,omitempty"`
	Quantity  int     `json:"quantity"`
}

// AddLine reserves first and only then makes the line visible. On a
// rejected reservation the cart is untouched and the shortfall
// propagates as *domain.InsufficientStockError.
func (s *Service) AddLine(ctx context.Context, sessionID string, in AddLineInput) ([]domain.CartLine, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("sessionId required")
	}
	if in.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	ref := domain.ItemRef{ProductID: in.ProductID, VariantID: in.VariantID}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	unitPrice := product.PriceCents
	size := ""
	stockAtAdd := product.Stock
	if ref.VariantID != nil && *ref.VariantID != "" {
		variant := findVariant(product, *ref.VariantID)
		if variant == nil {
			return nil, domain.ErrNotFound
		}
		if variant.PriceCents > 0 {
			unitPrice = variant.PriceCents
		}
		size = variant.Size
		stockAtAdd = variant.Stock
	}

	if err := s.reservations.Reserve(ctx, ref, in.Quantity); err != nil {
		return nil, err
	}

	line := domain.CartLine{
		SessionID:      sessionID,
		ProductID:      in.ProductID,
		VariantID:      in.VariantID,
		Quantity:       in.Quantity,
		UnitPriceCents: unitPrice,
		Snapshot:       lineSnapshot(product, size, stockAtAdd),
	}
	if _, err := s.repo.UpsertLine(ctx, line); err != nil {
		// Give the hold back so a failed write does not strand stock.
		if relErr := s.reservations.Release(ctx, ref, in.Quantity); relErr != nil {
			s.logger.Printf("cart: compensating release failed item=%s qty=%d: %v", ref.Key(), in.Quantity, relErr)
		}
		return nil, err
	}

	return s.linesAndNotify(ctx, sessionID)
}

// UpdateQuantity applies the signed delta against the existing line: a
// growth reserves only the delta, a shrink releases it. Zero or
// negative target quantity removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, ref domain.ItemRef, quantity int) ([]domain.CartLine, error) {
	if quantity <= 0 {
		return s.RemoveLine(ctx, sessionID, ref)
	}
	line, err := s.repo.GetLine(ctx, sessionID, ref)
	if err != nil {
		return nil, err
	}

	delta := quantity - line.Quantity
	switch {
	case delta > 0:
		if err := s.reservations.Reserve(ctx, ref, delta); err != nil {
			return nil, err
		}
		if err := s.repo.SetQuantity(ctx, sessionID, ref, quantity); err != nil {
			if relErr := s.reservations.Release(ctx, ref, delta); relErr != nil {
				s.logger.Printf("cart: compensating release failed item=%s qty=%d: %v", ref.Key(), delta, relErr)
			}
			return nil, err
		}
	case delta < 0:
		if err := s.repo.SetQuantity(ctx, sessionID, ref, quantity); err != nil {
			return nil, err
		}
		if err := s.reservations.Release(ctx, ref, -delta); err != nil {
			// One retry through the background queue; never a second
			// blind increment from here.
			s.logger.Printf("cart: release failed item=%s qty=%d, queueing retry: %v", ref.Key(), -delta, err)
			s.releases.Enqueue(ref, -delta)
		}
	default:
		// No change requested.
	}

	return s.linesAndNotify(ctx, sessionID)
}

// RemoveLine deletes the line immediately; the stock release rides the
// background queue so the user-visible removal never waits on it.
func (s *Service) RemoveLine(ctx context.Context, sessionID string, ref domain.ItemRef) ([]domain.CartLine, error) {
	line, err := s.repo.DeleteLine(ctx, sessionID, ref)
	if err != nil {
		return nil, err
	}
	s.releases.Enqueue(ref, line.Quantity)
	return s.linesAndNotify(ctx, sessionID)
}

// Clear removes every line and queues one release per line, so one
// failed release cannot block the others.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	lines, err := s.repo.DeleteAll(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		s.releases.Enqueue(line.Ref(), line.Quantity)
	}
	if s.notifier != nil {
		s.notifier.CartUpdated(ctx, sessionID, nil)
	}
	return nil
}

// Lines returns the session's current line set.
func (s *Service) Lines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *Service) linesAndNotify(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	lines, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	if s.notifier != nil {
		s.notifier.CartUpdated(ctx, sessionID, lines)
	}
	return lines, nil
}

func findVariant(p *domain.Product, variantID string) *domain.ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

func lineSnapshot(p *domain.Product, size string, stockAtAdd int) map[string]interface{} {
	snap := map[string]interface{}{
		"name":       p.Name,
		"slug":       p.Slug,
		"image":      p.Image,
		"currency":   p.Currency,
		"stockAtAdd": stockAtAdd,
	}
	if size != "" {
		snap["size"] = size
	}
	return snap
}

package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"parra-checkout/internal/domain"
	"parra-checkout/internal/payment"
	cartrepo "parra-checkout/internal/repository/cart"
	productrepo "parra-checkout/internal/repository/product"
)

var ErrEmptyCart = errors.New("cart is empty")

// Service builds gateway checkout sessions from the server-held cart.
// Names, sizes and prices come from the catalog, never from the client;
// the cart's reservations already hold the stock, so no availability
// re-check happens here.
type Service struct {
	carts    cartRepo
	products productRepo
	gateway  payment.Gateway
	logger   *log.Logger
}

type cartRepo interface {
	ListBySession(ctx context.Context, sessionID string) ([]domain.CartLine, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(carts cartrepo.Repository, products productrepo.Repository, gw payment.Gateway, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{carts: carts, products: products, gateway: gw, logger: logger}
}

type CreateSessionInput struct {
	SessionID string `json:"sessionId"`
	Email     string `json:"email"`
	Origin    string `json:"-"`
}

func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (*payment.CheckoutSession, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, errors.New("sessionId required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, errors.New("email required")
	}

	cartLines, err := s.carts.ListBySession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, ErrEmptyCart
	}

	currency := ""
	lines := make([]payment.TransactionLine, 0, len(cartLines))
	for _, line := range cartLines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		unitPrice := product.PriceCents
		size := ""
		if line.VariantID != nil && *line.VariantID != "" {
			variant := findVariant(product, *line.VariantID)
			if variant == nil {
				return nil, domain.ErrNotFound
			}
			if variant.PriceCents > 0 {
				unitPrice = variant.PriceCents
			}
			size = variant.Size
		}
		if currency == "" {
			currency = product.Currency
		}
		lines = append(lines, payment.TransactionLine{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Name:           product.Name,
			Image:          product.Image,
			Size:           size,
			Quantity:       line.Quantity,
			UnitPriceCents: unitPrice,
		})
	}

	origin := strings.TrimRight(in.Origin, "/")
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionInput{
		Lines:         lines,
		Email:         in.Email,
		CartSessionID: in.SessionID,
		Currency:      currency,
		SuccessURL:    origin + "/checkout/success",
		CancelURL:     origin + "/checkout/cancel",
	})
	if err != nil {
		s.logger.Printf("checkout: create session cart=%s error=%v", in.SessionID, err)
		return nil, err
	}
	s.logger.Printf("checkout: session created cart=%s reference=%s", in.SessionID, session.Reference)
	return session, nil
}

func findVariant(p *domain.Product, variantID string) *domain.ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

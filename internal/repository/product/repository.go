package product

import (
	"context"

	"parra-checkout/internal/domain"
)

type Repository interface {
	// GetByID returns the product with its variants.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error)
	List(ctx context.Context) ([]domain.Product, error)
	// Upsert inserts or updates by slug; used by the seeder.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertVariant(ctx context.Context, v domain.ProductVariant) (*domain.ProductVariant, error)
}

package seed

import (
	"context"
	"fmt"

	"parra-checkout/internal/domain"
	productrepo "parra-checkout/internal/repository/product"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Slug        string
	Name        string
	Description string
	Image       string
	PriceCents  int64
	Currency    string
	Stock       int
	Sizes       map[string]int
}

// Apply inserts a small demo catalog for manual testing. Idempotent via
// ON CONFLICT in the repository upserts.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	repo := productrepo.NewPostgres(pool, nil)

	products := []productSeed{
		{
			Slug:        "linen-shirt",
			Name:        "Linen Shirt",
			Description: "Relaxed fit linen shirt",
			Image:       "/images/linen-shirt.jpg",
			PriceCents:  4995,
			Currency:    "EUR",
			Sizes:       map[string]int{"S": 5, "M": 8, "L": 6, "XL": 3},
		},
		{
			Slug:        "canvas-tote",
			Name:        "Canvas Tote",
			Description: "Heavy cotton tote bag",
			Image:       "/images/canvas-tote.jpg",
			PriceCents:  1895,
			Currency:    "EUR",
			Stock:       25,
		},
		{
			Slug:        "wool-beanie",
			Name:        "Wool Beanie",
			Description: "Merino wool beanie",
			Image:       "/images/wool-beanie.jpg",
			PriceCents:  2450,
			Currency:    "EUR",
			Stock:       12,
		},
	}

	for _, p := range products {
		created, err := repo.Upsert(ctx, domain.Product{
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			Image:       p.Image,
			PriceCents:  p.PriceCents,
			Currency:    p.Currency,
			Stock:       p.Stock,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
		for size, stock := range p.Sizes {
			if _, err := repo.UpsertVariant(ctx, domain.ProductVariant{
				ProductID: created.ID,
				Size:      size,
				Stock:     stock,
			}); err != nil {
				return fmt.Errorf("upsert variant %s/%s: %w", p.Slug, size, err)
			}
		}
	}

	return nil
}

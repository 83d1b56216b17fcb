package product

import (
	"context"
	"errors"
	"io"
	"log"

	"parra-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, slug, name, COALESCE(description, ''), COALESCE(image, ''), price_cents, currency, stock, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Image, &p.PriceCents, &p.Currency, &p.Stock, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}

	const variantQ = `
SELECT id::text, product_id::text, size, price_cents, stock
FROM product_variants
WHERE product_id = $1
ORDER BY size ASC
`
	rows, err := r.pool.Query(ctx, variantQ, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.PriceCents, &v.Stock); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error) {
	const q = `
SELECT id::text, product_id::text, size, price_cents, stock
FROM product_variants
WHERE id = $1
`
	var v domain.ProductVariant
	err := r.pool.QueryRow(ctx, q, variantID).Scan(&v.ID, &v.ProductID, &v.Size, &v.PriceCents, &v.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Image, &p.PriceCents, &p.Currency, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (slug, name, description, image, price_cents, currency, stock)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
ON CONFLICT (slug)
DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description, image = EXCLUDED.image,
              price_cents = EXCLUDED.price_cents, currency = EXCLUDED.currency, stock = EXCLUDED.stock
RETURNING ` + productColumns + `
`
	var out domain.Product
	err := r.pool.QueryRow(ctx, q, p.Slug, p.Name, p.Description, p.Image, p.PriceCents, p.Currency, p.Stock).Scan(
		&out.ID, &out.Slug, &out.Name, &out.Description, &out.Image, &out.PriceCents, &out.Currency, &out.Stock, &out.CreatedAt,
	)
	if err != nil {
		r.logger.Printf("product repo: upsert slug=%s error=%v", p.Slug, err)
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) UpsertVariant(ctx context.Context, v domain.ProductVariant) (*domain.ProductVariant, error) {
	const q = `
INSERT INTO product_variants (product_id, size, price_cents, stock)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id, size)
DO UPDATE SET price_cents = EXCLUDED.price_cents, stock = EXCLUDED.stock
RETURNING id::text, product_id::text, size, price_cents, stock
`
	var out domain.ProductVariant
	err := r.pool.QueryRow(ctx, q, v.ProductID, v.Size, v.PriceCents, v.Stock).Scan(
		&out.ID, &out.ProductID, &out.Size, &out.PriceCents, &out.Stock,
	)
	if err != nil {
		r.logger.Printf("product repo: upsert variant product=%s size=%s error=%v", v.ProductID, v.Size, err)
		return nil, err
	}
	return &out, nil
}

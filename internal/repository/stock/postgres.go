package stock

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

func (r *postgresRepo) TryReserve(ctx context.Context, ref domain.ItemRef, quantity int) error {
	return r.conditionalDecrement(ctx, "reserve", ref, quantity)
}

func (r *postgresRepo) Decrement(ctx context.Context, ref domain.ItemRef, quantity int) error {
	return r.conditionalDecrement(ctx, "decrement", ref, quantity)
}

// conditionalDecrement applies "stock = stock - q WHERE stock >= q" as
// one statement. The WHERE clause is the whole concurrency story: of
// two racers for the last unit, exactly one statement matches a row.
func (r *postgresRepo) conditionalDecrement(ctx context.Context, op string, ref domain.ItemRef, quantity int) error {
	q := `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`
	id := ref.ProductID
	if ref.VariantID != nil && *ref.VariantID != "" {
		q = `
UPDATE product_variants
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
`
		id = *ref.VariantID
	}
	cmd, err := r.pool.Exec(ctx, q, id, quantity)
	if err != nil {
		r.logger.Printf("stock repo: %s item=%s qty=%d error=%v", op, ref.Key(), quantity, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *postgresRepo) Release(ctx context.Context, ref domain.ItemRef, quantity int) error {
	q := `UPDATE products SET stock = stock + $2 WHERE id = $1`
	id := ref.ProductID
	if ref.VariantID != nil && *ref.VariantID != "" {
		q = `UPDATE product_variants SET stock = stock + $2 WHERE id = $1`
		id = *ref.VariantID
	}
	cmd, err := r.pool.Exec(ctx, q, id, quantity)
	if err != nil {
		r.logger.Printf("stock repo: release item=%s qty=%d error=%v", ref.Key(), quantity, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Available(ctx context.Context, ref domain.ItemRef) (int, error) {
	var q string
	var id string
	if ref.VariantID != nil && *ref.VariantID != "" {
		q = `SELECT stock FROM product_variants WHERE id = $1`
		id = *ref.VariantID
	} else {
		q = `SELECT stock FROM products WHERE id = $1`
		id = ref.ProductID
	}
	var stock int
	if err := r.pool.QueryRow(ctx, q, id).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

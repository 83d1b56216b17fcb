package cart

import (
	"context"
	"errors"

	"parra-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lineColumns = `id::text, session_id, product_id::text, variant_id::text, quantity, unit_price_cents, snapshot, created_at, updated_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) UpsertLine(ctx context.Context, line domain.CartLine) (*domain.CartLine, error) {
	const q = `
INSERT INTO cart_lines (session_id, product_id, variant_id, quantity, unit_price_cents, snapshot)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'::jsonb))
ON CONFLICT (session_id, product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'::uuid))
DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = now()
RETURNING ` + lineColumns + `
`
	row := r.pool.QueryRow(ctx, q, line.SessionID, line.ProductID, line.VariantID, line.Quantity, line.UnitPriceCents, line.Snapshot)
	return scanLine(row)
}

func (r *postgresRepo) SetQuantity(ctx context.Context, sessionID string, ref domain.ItemRef, quantity int) error {
	const q = `
UPDATE cart_lines
SET quantity = $3, updated_at = now()
WHERE session_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $4::uuid
`
	cmd, err := r.pool.Exec(ctx, q, sessionID, ref.ProductID, quantity, ref.VariantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) GetLine(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartLine, error) {
	const q = `
SELECT ` + lineColumns + `
FROM cart_lines
WHERE session_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3::uuid
`
	return scanLine(r.pool.QueryRow(ctx, q, sessionID, ref.ProductID, ref.VariantID))
}

func (r *postgresRepo) DeleteLine(ctx context.Context, sessionID string, ref domain.ItemRef) (*domain.CartLine, error) {
	const q = `
DELETE FROM cart_lines
WHERE session_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3::uuid
RETURNING ` + lineColumns + `
`
	return scanLine(r.pool.QueryRow(ctx, q, sessionID, ref.ProductID, ref.VariantID))
}

func (r *postgresRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	const q = `
SELECT ` + lineColumns + `
FROM cart_lines
WHERE session_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLines(rows)
}

func (r *postgresRepo) DeleteAll(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	const q = `
DELETE FROM cart_lines
WHERE session_id = $1
RETURNING ` + lineColumns + `
`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLines(rows)
}

// MergeSessions runs the whole reassignment in one transaction so the
// held quantities are never attributed to neither, both, or more than
// was held. Overlapping line keys fold into the user's line; the rest
// change owner in place.
func (r *postgresRepo) MergeSessions(ctx context.Context, guestSessionID, userSessionID string) (int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
UPDATE cart_lines u
SET quantity = u.quantity + g.quantity, updated_at = now()
FROM cart_lines g
WHERE u.session_id = $2 AND g.session_id = $1
  AND u.product_id = g.product_id
  AND u.variant_id IS NOT DISTINCT FROM g.variant_id
`, guestSessionID, userSessionID); err != nil {
		return 0, err
	}

	absorbed, err := tx.Exec(ctx, `
DELETE FROM cart_lines g
WHERE g.session_id = $1
  AND EXISTS (
    SELECT 1 FROM cart_lines u
    WHERE u.session_id = $2
      AND u.product_id = g.product_id
      AND u.variant_id IS NOT DISTINCT FROM g.variant_id
  )
`, guestSessionID, userSessionID)
	if err != nil {
		return 0, err
	}

	moved, err := tx.Exec(ctx, `
UPDATE cart_lines
SET session_id = $2, updated_at = now()
WHERE session_id = $1
`, guestSessionID, userSessionID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(absorbed.RowsAffected() + moved.RowsAffected()), nil
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var line domain.CartLine
	if err := row.Scan(
		&line.ID,
		&line.SessionID,
		&line.ProductID,
		&line.VariantID,
		&line.Quantity,
		&line.UnitPriceCents,
		&line.Snapshot,
		&line.CreatedAt,
		&line.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

func collectLines(rows pgx.Rows) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.SessionID,
			&line.ProductID,
			&line.VariantID,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.Snapshot,
			&line.CreatedAt,
			&line.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

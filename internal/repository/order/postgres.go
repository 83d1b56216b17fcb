package order

import (
	"context"
	"errors"
	"io"
	"log"

	"parra-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const orderQ = `
INSERT INTO orders (payment_reference, email, session_id, status, subtotal_cents, total_cents, currency)
VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
RETURNING id::text, payment_reference, COALESCE(email, ''), session_id, status, subtotal_cents, total_cents, currency, created_at
`
	var ord domain.Order
	err = tx.QueryRow(ctx, orderQ,
		in.PaymentReference, in.Email, in.SessionID, domain.OrderStatusPending,
		in.SubtotalCents, in.TotalCents, in.Currency,
	).Scan(&ord.ID, &ord.PaymentReference, &ord.Email, &ord.SessionID, &ord.Status,
		&ord.SubtotalCents, &ord.TotalCents, &ord.Currency, &ord.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("order repo: create reference=%s error=%v", in.PaymentReference, err)
		return nil, err
	}

	const itemQ = `
INSERT INTO order_items (order_id, product_id, variant_id, name, image, size, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
RETURNING id::text
`
	for _, item := range in.Items {
		var itemID string
		if err := tx.QueryRow(ctx, itemQ,
			ord.ID, item.ProductID, item.VariantID, item.Name, item.Image, item.Size,
			item.Quantity, item.UnitPriceCents, item.TotalCents,
		).Scan(&itemID); err != nil {
			r.logger.Printf("order repo: create item order=%s product=%s error=%v", ord.ID, item.ProductID, err)
			return nil, err
		}
		item.ID = itemID
		item.OrderID = ord.ID
		ord.Items = append(ord.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created order=%s reference=%s items=%d", ord.ID, ord.PaymentReference, len(ord.Items))
	return &ord, nil
}

func (r *postgresRepo) GetByPaymentReference(ctx context.Context, paymentReference string) (*domain.Order, error) {
	const q = `
SELECT id::text, payment_reference, COALESCE(email, ''), session_id, status, subtotal_cents, total_cents, currency, created_at
FROM orders
WHERE payment_reference = $1
`
	return r.fetchOrder(ctx, q, paymentReference)
}

func (r *postgresRepo) SetStatus(ctx context.Context, orderID, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	const q = `
SELECT id::text, payment_reference, COALESCE(email, ''), session_id, status, subtotal_cents, total_cents, currency, created_at
FROM orders
WHERE email = $1
ORDER BY created_at DESC
`
	return r.listOrders(ctx, q, email)
}

func (r *postgresRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	const q = `
SELECT id::text, payment_reference, COALESCE(email, ''), session_id, status, subtotal_cents, total_cents, currency, created_at
FROM orders
WHERE session_id = $1
ORDER BY created_at DESC
`
	return r.listOrders(ctx, q, sessionID)
}

func (r *postgresRepo) fetchOrder(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	var ord domain.Order
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&ord.ID, &ord.PaymentReference, &ord.Email, &ord.SessionID, &ord.Status,
		&ord.SubtotalCents, &ord.TotalCents, &ord.Currency, &ord.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := r.itemsForOrders(ctx, []string{ord.ID})
	if err != nil {
		return nil, err
	}
	ord.Items = items[ord.ID]
	return &ord, nil
}

func (r *postgresRepo) listOrders(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		var ord domain.Order
		if err := rows.Scan(
			&ord.ID, &ord.PaymentReference, &ord.Email, &ord.SessionID, &ord.Status,
			&ord.SubtotalCents, &ord.TotalCents, &ord.Currency, &ord.CreatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, ord)
		ids = append(ids, ord.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *postgresRepo) itemsForOrders(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, variant_id::text, name, COALESCE(image, ''), COALESCE(size, ''), quantity, unit_price_cents, total_cents
FROM order_items
WHERE order_id = ANY($1)
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.Name,
			&item.Image, &item.Size, &item.Quantity, &item.UnitPriceCents, &item.TotalCents,
		); err != nil {
			return nil, err
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

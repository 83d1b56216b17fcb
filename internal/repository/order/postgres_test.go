package order

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"parra-checkout/internal/domain"
	"parra-checkout/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, cart_lines, product_variants, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, slug string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (slug, name, price_cents, stock) VALUES ($1, $1, 1000, 50) RETURNING id::text
`, slug).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func orderInput(productID, reference string) CreateOrderInput {
	return CreateOrderInput{
		PaymentReference: reference,
		Email:            "a@b.c",
		Currency:         "EUR",
		SubtotalCents:    2000,
		TotalCents:       2000,
		Items: []domain.OrderItem{
			{ProductID: productID, Name: "Shirt", Quantity: 2, UnitPriceCents: 1000, TotalCents: 2000},
		},
	}
}

func TestPostgres_CreateAndGetByReference(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, orderInput(productID, "pay_1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != domain.OrderStatusPending || len(created.Items) != 1 {
		t.Fatalf("unexpected order: %+v", created)
	}

	fetched, err := repo.GetByPaymentReference(ctx, "pay_1")
	if err != nil {
		t.Fatalf("GetByPaymentReference: %v", err)
	}
	if fetched.ID != created.ID || len(fetched.Items) != 1 {
		t.Fatalf("fetched mismatch: %+v", fetched)
	}
	if fetched.Items[0].Quantity != 2 || fetched.Items[0].UnitPriceCents != 1000 {
		t.Fatalf("unexpected item snapshot: %+v", fetched.Items[0])
	}
}

func TestPostgres_CreateDuplicateReference(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool, nil)

	if _, err := repo.Create(ctx, orderInput(productID, "pay_1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.Create(ctx, orderInput(productID, "pay_1"))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil || count != 1 {
		t.Fatalf("expected one order row, got %d err=%v", count, err)
	}
}

func TestPostgres_ConcurrentCreatesOneWinner(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool, nil)

	const writers = 6
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, orderInput(productID, "pay_race"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestPostgres_SetStatus(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool, nil)

	created, err := repo.Create(ctx, orderInput(productID, "pay_1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SetStatus(ctx, created.ID, domain.OrderStatusNeedsReconciliation); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	fetched, err := repo.GetByPaymentReference(ctx, "pay_1")
	if err != nil || fetched.Status != domain.OrderStatusNeedsReconciliation {
		t.Fatalf("expected needs_reconciliation, got %+v err=%v", fetched, err)
	}

	if err := repo.SetStatus(ctx, "00000000-0000-0000-0000-000000000001", "pending"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_ListByEmailAndSession(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool, nil)

	session := "s1"
	in := orderInput(productID, "pay_1")
	in.SessionID = &session
	if _, err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byEmail, err := repo.ListByEmail(ctx, "a@b.c")
	if err != nil || len(byEmail) != 1 {
		t.Fatalf("ListByEmail: %v err=%v", byEmail, err)
	}
	if len(byEmail[0].Items) != 1 {
		t.Fatalf("expected items attached, got %+v", byEmail[0])
	}

	bySession, err := repo.ListBySession(ctx, session)
	if err != nil || len(bySession) != 1 {
		t.Fatalf("ListBySession: %v err=%v", bySession, err)
	}

	none, err := repo.ListByEmail(ctx, "other@b.c")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no orders, got %v err=%v", none, err)
	}
}

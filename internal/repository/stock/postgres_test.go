package stock

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

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, slug string, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (slug, name, price_cents, stock) VALUES ($1, $1, 1000, $2) RETURNING id::text
`, slug, stock).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func insertVariant(ctx context.Context, t *testing.T, pool *pgxpool.Pool, productID, size string, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO product_variants (product_id, size, stock) VALUES ($1, $2, $3) RETURNING id::text
`, productID, size, stock).Scan(&id)
	if err != nil {
		t.Fatalf("insert variant: %v", err)
	}
	return id
}

func TestPostgres_ReserveReleaseSymmetry(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt", 5)
	repo := NewPostgres(pool, nil)
	ref := domain.ItemRef{ProductID: productID}

	if err := repo.TryReserve(ctx, ref, 3); err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	available, err := repo.Available(ctx, ref)
	if err != nil || available != 2 {
		t.Fatalf("Available after reserve: %d err=%v", available, err)
	}

	if err := repo.Release(ctx, ref, 3); err != nil {
		t.Fatalf("Release: %v", err)
	}
	available, err = repo.Available(ctx, ref)
	if err != nil || available != 5 {
		t.Fatalf("Available after release: %d err=%v", available, err)
	}
}

func TestPostgres_ReserveRejectsShortfall(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt", 2)
	repo := NewPostgres(pool, nil)

	err := repo.TryReserve(ctx, domain.ItemRef{ProductID: productID}, 3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	available, _ := repo.Available(ctx, domain.ItemRef{ProductID: productID})
	if available != 2 {
		t.Fatalf("rejected reserve must not change stock, got %d", available)
	}
}

func TestPostgres_ConcurrentReservesNeverOversell(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	const stock = 5
	const callers = 20
	productID := insertProduct(ctx, t, pool, "shirt", stock)
	repo := NewPostgres(pool, nil)
	ref := domain.ItemRef{ProductID: productID}

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.TryReserve(ctx, ref, 1)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != stock {
		t.Fatalf("expected exactly %d successes, got %d", stock, succeeded)
	}
	available, _ := repo.Available(ctx, ref)
	if available != 0 {
		t.Fatalf("expected zero stock, got %d", available)
	}
}

func TestPostgres_VariantStockIsIndependent(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt", 10)
	variantID := insertVariant(ctx, t, pool, productID, "M", 2)
	repo := NewPostgres(pool, nil)
	ref := domain.ItemRef{ProductID: productID, VariantID: &variantID}

	if err := repo.TryReserve(ctx, ref, 2); err != nil {
		t.Fatalf("TryReserve variant: %v", err)
	}
	if err := repo.TryReserve(ctx, ref, 1); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected variant shortfall, got %v", err)
	}
	baseAvailable, _ := repo.Available(ctx, domain.ItemRef{ProductID: productID})
	if baseAvailable != 10 {
		t.Fatalf("base product stock must be untouched, got %d", baseAvailable)
	}
}

func TestPostgres_UnknownItem(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	ref := domain.ItemRef{ProductID: "00000000-0000-0000-0000-000000000001"}

	if err := repo.TryReserve(ctx, ref, 1); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock for unknown item, got %v", err)
	}
	if err := repo.Release(ctx, ref, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on release, got %v", err)
	}
	if _, err := repo.Available(ctx, ref); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on available, got %v", err)
	}
}

package cart

import (
	"context"
	"errors"
	"os"
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

func totalQuantity(lines []domain.CartLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func TestPostgres_UpsertLineIncrementsQuantity(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool)

	line := domain.CartLine{SessionID: "s1", ProductID: productID, Quantity: 2, UnitPriceCents: 1000}
	first, err := repo.UpsertLine(ctx, line)
	if err != nil {
		t.Fatalf("UpsertLine: %v", err)
	}
	if first.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", first.Quantity)
	}

	second, err := repo.UpsertLine(ctx, line)
	if err != nil {
		t.Fatalf("UpsertLine again: %v", err)
	}
	if second.Quantity != 4 || second.ID != first.ID {
		t.Fatalf("expected same line with quantity 4, got %+v", second)
	}

	lines, err := repo.ListBySession(ctx, "s1")
	if err != nil || len(lines) != 1 {
		t.Fatalf("expected one line, got %v err=%v", lines, err)
	}
}

func TestPostgres_DeleteLineReturnsHeldQuantity(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool)

	if _, err := repo.UpsertLine(ctx, domain.CartLine{SessionID: "s1", ProductID: productID, Quantity: 3, UnitPriceCents: 1000}); err != nil {
		t.Fatalf("UpsertLine: %v", err)
	}

	deleted, err := repo.DeleteLine(ctx, "s1", domain.ItemRef{ProductID: productID})
	if err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	if deleted.Quantity != 3 {
		t.Fatalf("expected held quantity 3, got %d", deleted.Quantity)
	}

	if _, err := repo.DeleteLine(ctx, "s1", domain.ItemRef{ProductID: productID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPostgres_MergeSessionsFoldsAndMoves(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	shared := insertProduct(ctx, t, pool, "shirt")
	guestOnly := insertProduct(ctx, t, pool, "tote")
	repo := NewPostgres(pool)

	seedLines := []domain.CartLine{
		{SessionID: "guest-1", ProductID: shared, Quantity: 2, UnitPriceCents: 1000},
		{SessionID: "guest-1", ProductID: guestOnly, Quantity: 1, UnitPriceCents: 1000},
		{SessionID: "user-1", ProductID: shared, Quantity: 3, UnitPriceCents: 1000},
	}
	for _, line := range seedLines {
		if _, err := repo.UpsertLine(ctx, line); err != nil {
			t.Fatalf("seed line: %v", err)
		}
	}

	count, err := repo.MergeSessions(ctx, "guest-1", "user-1")
	if err != nil {
		t.Fatalf("MergeSessions: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 transferred lines, got %d", count)
	}

	guestLines, err := repo.ListBySession(ctx, "guest-1")
	if err != nil || len(guestLines) != 0 {
		t.Fatalf("guest session must be empty, got %v err=%v", guestLines, err)
	}

	userLines, err := repo.ListBySession(ctx, "user-1")
	if err != nil || len(userLines) != 2 {
		t.Fatalf("expected 2 user lines, got %v err=%v", userLines, err)
	}
	// Total held quantity is conserved across the merge.
	if total := totalQuantity(userLines); total != 6 {
		t.Fatalf("expected total quantity 6, got %d", total)
	}
	for _, line := range userLines {
		if line.ProductID == shared && line.Quantity != 5 {
			t.Fatalf("expected folded quantity 5 on shared product, got %d", line.Quantity)
		}
	}
}

func TestPostgres_MergeSessionsEmptyGuest(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool)
	count, err := repo.MergeSessions(ctx, "guest-none", "user-1")
	if err != nil {
		t.Fatalf("MergeSessions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 transferred lines, got %d", count)
	}
}

func TestPostgres_SetQuantityUnknownLine(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "shirt")
	repo := NewPostgres(pool)

	err := repo.SetQuantity(ctx, "s1", domain.ItemRef{ProductID: productID}, 2)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_DeleteAllReturnsEveryLine(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	first := insertProduct(ctx, t, pool, "shirt")
	second := insertProduct(ctx, t, pool, "tote")
	repo := NewPostgres(pool)

	for _, line := range []domain.CartLine{
		{SessionID: "s1", ProductID: first, Quantity: 2, UnitPriceCents: 1000},
		{SessionID: "s1", ProductID: second, Quantity: 1, UnitPriceCents: 1000},
	} {
		if _, err := repo.UpsertLine(ctx, line); err != nil {
			t.Fatalf("seed line: %v", err)
		}
	}

	deleted, err := repo.DeleteAll(ctx, "s1")
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if len(deleted) != 2 || totalQuantity(deleted) != 3 {
		t.Fatalf("expected both lines back with quantities, got %v", deleted)
	}
}

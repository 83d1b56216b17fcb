package merge

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCarts struct {
	count int
	err   error

	calls    int
	lastFrom string
	lastTo   string
}

func (s *stubCarts) MergeSessions(_ context.Context, guest, user string) (int, error) {
	s.calls++
	s.lastFrom = guest
	s.lastTo = user
	return s.count, s.err
}

func TestMergeTransfersLines(t *testing.T) {
	carts := &stubCarts{count: 3}
	svc := &Service{carts: carts, logger: discardLogger()}

	count, err := svc.Merge(context.Background(), "guest-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 transferred lines, got %d", count)
	}
	if carts.lastFrom != "guest-1" || carts.lastTo != "user-1" {
		t.Fatalf("unexpected repo call: %s -> %s", carts.lastFrom, carts.lastTo)
	}
}

func TestMergeSelfIsNoOp(t *testing.T) {
	carts := &stubCarts{}
	svc := &Service{carts: carts, logger: discardLogger()}

	count, err := svc.Merge(context.Background(), "s-1", "s-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 || carts.calls != 0 {
		t.Fatalf("self-merge must not touch the store: count=%d calls=%d", count, carts.calls)
	}
}

func TestMergeRequiresBothSessions(t *testing.T) {
	svc := &Service{carts: &stubCarts{}, logger: discardLogger()}
	for _, pair := range [][2]string{{"", "user-1"}, {"guest-1", ""}, {"  ", "user-1"}} {
		if _, err := svc.Merge(context.Background(), pair[0], pair[1]); err == nil {
			t.Fatalf("expected error for sessions %q/%q", pair[0], pair[1])
		}
	}
}

func TestMergePropagatesStoreError(t *testing.T) {
	storeErr := errors.New("deadlock detected")
	svc := &Service{carts: &stubCarts{err: storeErr}, logger: discardLogger()}

	if _, err := svc.Merge(context.Background(), "guest-1", "user-1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

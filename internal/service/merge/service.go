package merge

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	cartrepo "parra-checkout/internal/repository/cart"
)

// Service moves a guest session's cart (and the stock holds behind it)
// to the authenticated session after login. Ownership changes in one
// store transaction; there is never a release/re-reserve window a third
// party could win stock in.
type Service struct {
	carts  cartRepo
	logger *log.Logger
}

type cartRepo interface {
	MergeSessions(ctx context.Context, guestSessionID, userSessionID string) (int, error)
}

func New(carts cartrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{carts: carts, logger: logger}
}

// Merge transfers guest lines to the user session and retires the guest
// identifier. Returns the number of lines transferred. Merging a
// session into itself is a successful no-op.
func (s *Service) Merge(ctx context.Context, guestSessionID, userSessionID string) (int, error) {
	guest := strings.TrimSpace(guestSessionID)
	user := strings.TrimSpace(userSessionID)
	if guest == "" || user == "" {
		return 0, errors.New("guestSessionId and userSessionId required")
	}
	if guest == user {
		return 0, nil
	}
	count, err := s.carts.MergeSessions(ctx, guest, user)
	if err != nil {
		s.logger.Printf("merge: guest=%s user=%s error=%v", guest, user, err)
		return 0, err
	}
	s.logger.Printf("merge: guest=%s user=%s lines=%d", guest, user, count)
	return count, nil
}

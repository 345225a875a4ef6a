package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/jakobkordez/wmm-reborn/internal/observability/metrics"
)

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	// Verify reports whether password matches hash. A mismatch is not an error;
	// only a malformed hash or a cancelled context is.
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// BcryptHasher bounds concurrent bcrypt work to a fixed number of workers so a
// burst of logins cannot starve the request goroutines of CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewBcryptHasher(cost, workers int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if workers <= 0 {
		workers = 1
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(workers)),
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.PasswordHashDurationSeconds.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	}()

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("hash queue: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.PasswordHashDurationSeconds.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	}()

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("hash queue: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

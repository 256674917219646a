package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/observability"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a one-way hash of the password. Secrets the algorithm
	// cannot accept wrap api.ErrSecretNotHashable.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt with a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. The cost must be within bcrypt's
// accepted range.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer observeHash("hash", time.Now())

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %w", api.ErrSecretNotHashable, err)
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the bcrypt hash.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer observeHash("verify", time.Now())

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("invalid password hash: %w", err)
	}
}

func observeHash(op string, start time.Time) {
	observability.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// PooledHasher bounds the number of concurrent hash operations so a burst
// of logins cannot starve the request goroutines of CPU. Callers block until
// a slot is free or their context ends.
type PooledHasher struct {
	inner PasswordHasher
	sem   *semaphore.Weighted
}

// NewPooledHasher wraps inner with a limit of workers concurrent
// operations. A non-positive workers uses GOMAXPROCS.
func NewPooledHasher(inner PasswordHasher, workers int) *PooledHasher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &PooledHasher{
		inner: inner,
		sem:   semaphore.NewWeighted(int64(workers)),
	}
}

// Hash implements PasswordHasher.
func (p *PooledHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer p.sem.Release(1)
	return p.inner.Hash(ctx, password)
}

// Verify implements PasswordHasher.
func (p *PooledHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer p.sem.Release(1)
	return p.inner.Verify(ctx, password, hash)
}

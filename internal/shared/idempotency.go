package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyStore persists processed client references.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// ErrIdempotencyConflict indicates a duplicate reference.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// CheckAndInsert ensures reference uniqueness per module.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, reference, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if reference == "" {
		return errors.New("idempotency reference required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (reference, module, created_at) VALUES ($1, $2, $3)`, reference, module, time.Now())
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" {
				return ErrIdempotencyConflict
			}
		}
		return err
	}
	return nil
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if s == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	return err
}

// Delete removes a reference, typically used to roll back failed processing.
func (s *IdempotencyStore) Delete(ctx context.Context, reference string) error {
	if s == nil {
		return nil
	}
	if reference == "" {
		return errors.New("idempotency reference required")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE reference=$1`, reference)
	return err
}

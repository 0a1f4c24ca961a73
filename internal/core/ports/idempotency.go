package ports

import "context"

// IdempotencyStore remembers which task an Idempotency-Key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (taskID string, found bool, err error)
	Remember(ctx context.Context, key, taskID string) error
}

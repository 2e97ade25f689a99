package store

import (
	"context"
	"time"
)

// KeyValue is the small string store used for chat snapshots and ephemeral
// session identifiers. A zero ttl means the key never expires.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

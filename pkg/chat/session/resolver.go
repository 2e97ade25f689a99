package session

import (
	"context"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/pkg/store"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const resolverModule = "SESSION_RESOLVER"

// Resolver hands out the ephemeral session identifier that scopes local
// snapshots for non-persistent tiers. It survives until the identifier
// expires from the ephemeral store or the user logs out.
type Resolver struct {
	ephemeral store.KeyValue
	ttl       time.Duration
	logger    logger.ILogger
	now       func() time.Time
}

func NewResolver(ephemeral store.KeyValue, ttl time.Duration, log logger.ILogger) *Resolver {
	return &Resolver{
		ephemeral: ephemeral,
		ttl:       ttl,
		logger:    log,
		now:       time.Now,
	}
}

// Resolve returns ("", false) for tiers that key storage by user id.
// Otherwise it returns the stored identifier, creating one when absent.
// Storage failures yield a fresh identifier that is only valid for this call.
func (r *Resolver) Resolve(ctx context.Context, userId uuid.UUID, t tier.Tier) (string, bool) {
	if tier.Of(t).PersistentSession {
		return "", false
	}

	key := constant.SessionIdKey(userId.String())
	existing, found, err := r.ephemeral.Get(ctx, key)
	if err != nil {
		r.logger.Warn(resolverModule, "Ephemeral storage unavailable, using in-memory session id", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return r.newId(), true
	}
	if found && existing != "" {
		return existing, true
	}

	id := r.newId()
	if err := r.ephemeral.Set(ctx, key, id, r.ttl); err != nil {
		r.logger.Warn(resolverModule, "Failed to store session id", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
	return id, true
}

// Forget drops the stored identifier so the next Resolve starts a new session.
func (r *Resolver) Forget(ctx context.Context, userId uuid.UUID) {
	if err := r.ephemeral.Delete(ctx, constant.SessionIdKey(userId.String())); err != nil {
		r.logger.Warn(resolverModule, "Failed to delete session id", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
}

func (r *Resolver) newId() string {
	return "session_" + ulid.MustNew(ulid.Timestamp(r.now()), ulid.DefaultEntropy()).String()
}

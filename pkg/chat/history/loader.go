package history

import (
	"context"
	"encoding/json"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/store"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
)

const loaderModule = "HISTORY_LOADER"

// Loader restores a session's conversation: the remote store first, the
// local snapshot when the remote is unreachable or has nothing.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
	local      store.KeyValue
	logger     logger.ILogger
}

func NewLoader(uowFactory unitofwork.RepositoryFactory, local store.KeyValue, log logger.ILogger) *Loader {
	return &Loader{
		uowFactory: uowFactory,
		local:      local,
		logger:     log,
	}
}

// Load never fails. The result is in ascending creation order and holds at
// most the tier's history limit when it comes from the remote store.
func (l *Loader) Load(ctx context.Context, userId uuid.UUID, t tier.Tier, sessionId string) []entity.ChatMessage {
	limit := tier.Of(t).HistoryLimit

	remote, err := l.loadRemote(ctx, userId, limit)
	if err != nil {
		l.logger.Warn(loaderModule, "Remote history unavailable, falling back to local snapshot", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
	if err == nil && len(remote) > 0 {
		return remote
	}

	return l.LoadSnapshot(ctx, userId.String(), sessionId)
}

func (l *Loader) loadRemote(ctx context.Context, userId uuid.UUID, limit int) ([]entity.ChatMessage, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	// Newest first so the limit keeps the most recent turns.
	rows, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]entity.ChatMessage, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		messages = append(messages, *rows[i])
	}
	return messages, nil
}

// LoadSnapshot reads the JSON snapshot for the key pair. A missing or
// unreadable snapshot is an empty conversation.
func (l *Loader) LoadSnapshot(ctx context.Context, userId, sessionId string) []entity.ChatMessage {
	key := constant.ChatSnapshotKey(userId, sessionId)

	raw, found, err := l.local.Get(ctx, key)
	if err != nil {
		l.logger.Warn(loaderModule, "Local snapshot unavailable", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return []entity.ChatMessage{}
	}
	if !found || raw == "" {
		return []entity.ChatMessage{}
	}

	var messages []entity.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		l.logger.Warn(loaderModule, "Discarding corrupt local snapshot", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return []entity.ChatMessage{}
	}
	if messages == nil {
		return []entity.ChatMessage{}
	}
	return messages
}

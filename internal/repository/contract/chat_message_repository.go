package contract

import (
	"context"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, userId uuid.UUID, message *entity.ChatMessage) error
	// Upsert inserts the message or overwrites role/content of an existing row with the same id.
	Upsert(ctx context.Context, userId uuid.UUID, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

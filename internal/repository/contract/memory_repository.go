package contract

import (
	"context"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MemoryRepository interface {
	Create(ctx context.Context, memory *entity.Memory) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Memory, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Memory, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) (int64, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

type ArchivedMemoryRepository interface {
	Create(ctx context.Context, archived *entity.ArchivedMemory) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ArchivedMemory, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchivedMemory, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

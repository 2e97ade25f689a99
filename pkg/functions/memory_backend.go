package functions

import (
	"context"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/entity"
	"eq-coach-be/pkg/memory"

	"github.com/google/uuid"
)

// MemoryBackend serves memory.Backend from the remote functions.
type MemoryBackend struct {
	client *Client
}

var _ memory.Backend = &MemoryBackend{}

func NewMemoryBackend(client *Client) *MemoryBackend {
	return &MemoryBackend{client: client}
}

func (b *MemoryBackend) FetchMemories(ctx context.Context, userId uuid.UUID) ([]entity.Memory, error) {
	var result dto.FetchMemoriesResult
	if err := b.client.Invoke(ctx, constant.FunctionFetchMemories, dto.FunctionRequest{UserId: userId}, &result); err != nil {
		return nil, err
	}

	memories := make([]entity.Memory, 0, len(result.Memories))
	for _, m := range result.Memories {
		memories = append(memories, toEntity(userId, m))
	}
	return memories, nil
}

func (b *MemoryBackend) DeleteMemories(ctx context.Context, userId uuid.UUID) (int, error) {
	var result dto.DeleteMemoriesResult
	if err := b.client.Invoke(ctx, constant.FunctionDeleteMemories, dto.FunctionRequest{UserId: userId}, &result); err != nil {
		return 0, err
	}
	return result.Deleted, nil
}

func (b *MemoryBackend) RestoreMemory(ctx context.Context, userId uuid.UUID, archived entity.ArchivedMemory) (*entity.Memory, error) {
	req := dto.FunctionRequest{
		UserId: userId,
		ArchivedMemory: &dto.FunctionArchivedEntry{
			Id:               archived.Id,
			OriginalMemoryId: archived.OriginalMemoryId,
			Content:          archived.Content,
			MemoryType:       archived.MemoryType,
			Metadata:         archived.Metadata,
		},
	}

	var result dto.RestoreMemoryResult
	if err := b.client.Invoke(ctx, constant.FunctionRestoreMemory, req, &result); err != nil {
		return nil, err
	}
	m := toEntity(userId, result.Memory)
	return &m, nil
}

func (b *MemoryBackend) MemoryStats(ctx context.Context, userId uuid.UUID) (*entity.MemoryStats, error) {
	var stats entity.MemoryStats
	if err := b.client.Invoke(ctx, constant.FunctionMemoryStats, dto.FunctionRequest{UserId: userId}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func toEntity(userId uuid.UUID, m dto.FunctionMemory) entity.Memory {
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return entity.Memory{
		Id:         m.Id,
		UserId:     userId,
		Content:    m.Content,
		MemoryType: m.MemoryType,
		Metadata:   metadata,
		CreatedAt:  m.CreatedAt,
	}
}

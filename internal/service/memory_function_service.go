package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/memory"

	"github.com/google/uuid"
)

var (
	ErrUnknownFunction  = errors.New("unknown function")
	ErrMissingArchived  = errors.New("archivedMemory is required")
	ErrEmptyMemoryInput = errors.New("archived memory content is empty")
)

// IMemoryFunctionService runs fetch-memories, delete-memories, restore-memory
// and memory-stats against the local database.
type IMemoryFunctionService interface {
	memory.Backend
	Invoke(ctx context.Context, name string, req dto.FunctionRequest) (interface{}, error)
}

type memoryFunctionService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewMemoryFunctionService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	log logger.ILogger,
) IMemoryFunctionService {
	return &memoryFunctionService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *memoryFunctionService) Invoke(ctx context.Context, name string, req dto.FunctionRequest) (interface{}, error) {
	switch name {
	case constant.FunctionFetchMemories:
		memories, err := s.FetchMemories(ctx, req.UserId)
		if err != nil {
			return nil, err
		}
		result := dto.FetchMemoriesResult{Memories: make([]dto.FunctionMemory, 0, len(memories))}
		for _, m := range memories {
			result.Memories = append(result.Memories, toFunctionMemory(m))
		}
		return result, nil

	case constant.FunctionDeleteMemories:
		deleted, err := s.DeleteMemories(ctx, req.UserId)
		if err != nil {
			return nil, err
		}
		return dto.DeleteMemoriesResult{Deleted: deleted}, nil

	case constant.FunctionRestoreMemory:
		if req.ArchivedMemory == nil {
			return nil, ErrMissingArchived
		}
		restored, err := s.RestoreMemory(ctx, req.UserId, entity.ArchivedMemory{
			Id:               req.ArchivedMemory.Id,
			UserId:           req.UserId,
			OriginalMemoryId: req.ArchivedMemory.OriginalMemoryId,
			Content:          req.ArchivedMemory.Content,
			MemoryType:       req.ArchivedMemory.MemoryType,
			Metadata:         req.ArchivedMemory.Metadata,
		})
		if err != nil {
			return nil, err
		}
		return dto.RestoreMemoryResult{Memory: toFunctionMemory(*restored)}, nil

	case constant.FunctionMemoryStats:
		return s.MemoryStats(ctx, req.UserId)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}

func (s *memoryFunctionService) FetchMemories(ctx context.Context, userId uuid.UUID) ([]entity.Memory, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.MemoryRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	memories := make([]entity.Memory, 0, len(rows))
	for _, r := range rows {
		memories = append(memories, *r)
	}
	return memories, nil
}

func (s *memoryFunctionService) DeleteMemories(ctx context.Context, userId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.MemoryRepository().DeleteAllByUserId(ctx, userId)
	if err != nil {
		return 0, err
	}

	s.logger.Info("MEMORY_FUNCTIONS", "Deleted active memories", map[string]interface{}{
		"user_id": userId.String(),
		"deleted": deleted,
	})
	return int(deleted), nil
}

// RestoreMemory inserts a fresh active memory from the archive entry and
// queues it for embedding. The archive entry is not touched.
func (s *memoryFunctionService) RestoreMemory(ctx context.Context, userId uuid.UUID, archived entity.ArchivedMemory) (*entity.Memory, error) {
	if archived.Content == "" {
		return nil, ErrEmptyMemoryInput
	}

	memoryType := archived.MemoryType
	if memoryType == "" {
		memoryType = constant.MemoryTypeMessage
	}
	metadata := make(map[string]interface{}, len(archived.Metadata)+1)
	for k, v := range archived.Metadata {
		metadata[k] = v
	}
	metadata["restored_from"] = archived.Id.String()

	restored := &entity.Memory{
		Id:         uuid.New(),
		UserId:     userId,
		Content:    archived.Content,
		MemoryType: memoryType,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MemoryRepository().Create(ctx, restored); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMemoryReindex(ctx, dto.MemoryReindexMessage{MemoryId: restored.Id}); err != nil {
			s.logger.Warn("MEMORY_FUNCTIONS", "Failed to queue restored memory for embedding", map[string]interface{}{
				"memory_id": restored.Id.String(),
				"error":     err.Error(),
			})
		}
	}

	return restored, nil
}

func (s *memoryFunctionService) MemoryStats(ctx context.Context, userId uuid.UUID) (*entity.MemoryStats, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).MemoryRepository()
	owned := specification.UserOwnedBy{UserID: userId}

	total, err := repo.Count(ctx, owned)
	if err != nil {
		return nil, err
	}
	messages, err := repo.Count(ctx, owned, specification.ByMemoryType{MemoryType: constant.MemoryTypeMessage})
	if err != nil {
		return nil, err
	}
	insights, err := repo.Count(ctx, owned, specification.ByMemoryType{MemoryType: constant.MemoryTypeInsight})
	if err != nil {
		return nil, err
	}

	stats := &entity.MemoryStats{
		TotalMemories:   int(total),
		MessageMemories: int(messages),
		InsightMemories: int(insights),
	}

	if total > 0 {
		latest, err := repo.FindAll(ctx, owned,
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Pagination{Limit: 1},
		)
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 {
			at := latest[0].CreatedAt
			stats.LastMemoryAt = &at
		}
	}

	return stats, nil
}

func toFunctionMemory(m entity.Memory) dto.FunctionMemory {
	return dto.FunctionMemory{
		Id:         m.Id,
		Content:    m.Content,
		MemoryType: m.MemoryType,
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt,
	}
}

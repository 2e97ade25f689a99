package memory

import (
	"context"

	"eq-coach-be/internal/entity"

	"github.com/google/uuid"
)

// Backend is the set of memory functions that run next to the vector store:
// fetch-memories, delete-memories, restore-memory and memory-stats.
type Backend interface {
	FetchMemories(ctx context.Context, userId uuid.UUID) ([]entity.Memory, error)
	DeleteMemories(ctx context.Context, userId uuid.UUID) (int, error)
	// RestoreMemory re-creates an active memory from the archive entry. The
	// entry itself is left in place.
	RestoreMemory(ctx context.Context, userId uuid.UUID, archived entity.ArchivedMemory) (*entity.Memory, error)
	MemoryStats(ctx context.Context, userId uuid.UUID) (*entity.MemoryStats, error)
}

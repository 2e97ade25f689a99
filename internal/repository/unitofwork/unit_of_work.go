package unitofwork

import (
	"context"

	"eq-coach-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProfileRepository() contract.ProfileRepository
	ChatMessageRepository() contract.ChatMessageRepository
	MemoryRepository() contract.MemoryRepository
	ArchivedMemoryRepository() contract.ArchivedMemoryRepository
}

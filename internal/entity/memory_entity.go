package entity

import (
	"time"

	"github.com/google/uuid"
)

type Memory struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Content    string
	MemoryType string
	Metadata   map[string]interface{}
	Embedded   bool
	CreatedAt  time.Time
}

type ArchivedMemory struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	OriginalMemoryId uuid.UUID
	Content          string
	MemoryType       string
	Metadata         map[string]interface{}
	ArchivedAt       time.Time
}

type MemoryStats struct {
	TotalMemories   int        `json:"total_memories"`
	MessageMemories int        `json:"message_memories"`
	InsightMemories int        `json:"insight_memories"`
	LastMemoryAt    *time.Time `json:"last_memory_at"`
}

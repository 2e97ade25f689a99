package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FunctionRequest is the body every memory function accepts.
type FunctionRequest struct {
	UserId         uuid.UUID              `json:"userId" validate:"required"`
	ArchivedMemory *FunctionArchivedEntry `json:"archivedMemory,omitempty"`
}

type FunctionArchivedEntry struct {
	Id               uuid.UUID              `json:"id"`
	OriginalMemoryId uuid.UUID              `json:"original_memory_id"`
	Content          string                 `json:"content"`
	MemoryType       string                 `json:"memory_type"`
	Metadata         map[string]interface{} `json:"metadata"`
}

// FunctionEnvelope is {"data": ...} on success and {"error": "..."} otherwise.
type FunctionEnvelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type FunctionMemory struct {
	Id         uuid.UUID              `json:"id"`
	Content    string                 `json:"content"`
	MemoryType string                 `json:"memory_type"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

type FetchMemoriesResult struct {
	Memories []FunctionMemory `json:"memories"`
}

type DeleteMemoriesResult struct {
	Deleted int `json:"deleted"`
}

type RestoreMemoryResult struct {
	Memory FunctionMemory `json:"memory"`
}

// MemoryReindexMessage asks the index consumer to (re)embed a memory.
type MemoryReindexMessage struct {
	MemoryId uuid.UUID `json:"memory_id"`
}

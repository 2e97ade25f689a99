package dto

import (
	"time"

	"github.com/google/uuid"
)

type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type ArchiveMemoryRequest struct {
	MemoryId   uuid.UUID              `json:"memory_id" validate:"required"`
	Content    string                 `json:"content" validate:"required"`
	MemoryType string                 `json:"memory_type" validate:"omitempty,oneof=message insight"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type ClearMemoriesRequest struct {
	ArchiveFirst bool `json:"archive_first"`
}

type ArchivedMemoryResponse struct {
	Id               uuid.UUID              `json:"id"`
	OriginalMemoryId uuid.UUID              `json:"original_memory_id"`
	Content          string                 `json:"content"`
	MemoryType       string                 `json:"memory_type"`
	Metadata         map[string]interface{} `json:"metadata"`
	ArchivedAt       time.Time              `json:"archived_at"`
}

type MemoryOutcomeResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

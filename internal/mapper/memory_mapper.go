package mapper

import (
	"encoding/json"

	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/model"

	"gorm.io/datatypes"
)

type MemoryMapper struct{}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) MemoryToEntity(mem *model.Memory) *entity.Memory {
	if mem == nil {
		return nil
	}

	return &entity.Memory{
		Id:         mem.Id,
		UserId:     mem.UserId,
		Content:    mem.Content,
		MemoryType: mem.MemoryType,
		Metadata:   ParseMetadata(mem.Metadata),
		Embedded:   mem.Embedding != nil,
		CreatedAt:  mem.CreatedAt,
	}
}

func (m *MemoryMapper) MemoryToModel(mem *entity.Memory) *model.Memory {
	if mem == nil {
		return nil
	}

	return &model.Memory{
		Id:         mem.Id,
		UserId:     mem.UserId,
		Content:    mem.Content,
		MemoryType: mem.MemoryType,
		Metadata:   EncodeMetadata(mem.Metadata),
		CreatedAt:  mem.CreatedAt,
	}
}

func (m *MemoryMapper) ArchivedToEntity(a *model.ArchivedMemory) *entity.ArchivedMemory {
	if a == nil {
		return nil
	}

	return &entity.ArchivedMemory{
		Id:               a.Id,
		UserId:           a.UserId,
		OriginalMemoryId: a.OriginalMemoryId,
		Content:          a.Content,
		MemoryType:       a.MemoryType,
		Metadata:         ParseMetadata(a.Metadata),
		ArchivedAt:       a.ArchivedAt,
	}
}

func (m *MemoryMapper) ArchivedToModel(a *entity.ArchivedMemory) *model.ArchivedMemory {
	if a == nil {
		return nil
	}

	return &model.ArchivedMemory{
		Id:               a.Id,
		UserId:           a.UserId,
		OriginalMemoryId: a.OriginalMemoryId,
		Content:          a.Content,
		MemoryType:       a.MemoryType,
		Metadata:         EncodeMetadata(a.Metadata),
		ArchivedAt:       a.ArchivedAt,
	}
}

// ParseMetadata never fails: anything that is not a JSON object becomes an empty map.
func ParseMetadata(raw datatypes.JSON) map[string]interface{} {
	result := map[string]interface{}{}
	if len(raw) == 0 {
		return result
	}
	if err := json.Unmarshal(raw, &result); err != nil || result == nil {
		return map[string]interface{}{}
	}
	return result
}

func EncodeMetadata(meta map[string]interface{}) datatypes.JSON {
	if meta == nil {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func (m *MemoryMapper) ArchivedToResponse(a entity.ArchivedMemory) dto.ArchivedMemoryResponse {
	meta := a.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return dto.ArchivedMemoryResponse{
		Id:               a.Id,
		OriginalMemoryId: a.OriginalMemoryId,
		Content:          a.Content,
		MemoryType:       a.MemoryType,
		Metadata:         meta,
		ArchivedAt:       a.ArchivedAt,
	}
}

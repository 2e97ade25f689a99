package mapper

import (
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/model"

	"github.com/google/uuid"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatMessageToEntity(c *model.ChatMessage) *entity.ChatMessage {
	if c == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:        c.Id.String(),
		Role:      c.Role,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Persisted: true,
	}
}

// ChatMessageToModel fails for messages whose id is not a UUID, i.e. messages
// that only ever lived in the buffer.
func (m *ChatMapper) ChatMessageToModel(userId uuid.UUID, c *entity.ChatMessage) (*model.ChatMessage, error) {
	id, err := uuid.Parse(c.Id)
	if err != nil {
		return nil, err
	}

	return &model.ChatMessage{
		Id:        id,
		UserId:    userId,
		Role:      c.Role,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}, nil
}

func (m *ChatMapper) ChatMessagesToEntities(chats []*model.ChatMessage) []*entity.ChatMessage {
	result := make([]*entity.ChatMessage, 0, len(chats))
	for _, c := range chats {
		result = append(result, m.ChatMessageToEntity(c))
	}
	return result
}

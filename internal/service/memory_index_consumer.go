package service

import (
	"context"
	"encoding/json"

	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// memoryIndexConsumer embeds restored memories. Every message is acked: a
// memory that fails to embed stays active without a vector.
type memoryIndexConsumer struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	logger            logger.ILogger
}

func NewMemoryIndexConsumer(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	log logger.ILogger,
) IConsumerService {
	return &memoryIndexConsumer{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (c *memoryIndexConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
			msg.Ack()
		}
	}()

	return nil
}

func (c *memoryIndexConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.MemoryReindexMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("MEMORY_INDEX", "Failed to unmarshal reindex message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	mem, err := uow.MemoryRepository().FindOne(ctx, specification.ByID{ID: payload.MemoryId})
	if err != nil {
		c.logger.Error("MEMORY_INDEX", "Failed to load memory", map[string]interface{}{
			"memory_id": payload.MemoryId.String(),
			"error":     err.Error(),
		})
		return
	}
	if mem == nil {
		// deleted before we got to it
		return
	}

	vector, err := c.embeddingProvider.Embed(ctx, mem.Content)
	if err != nil {
		c.logger.Warn("MEMORY_INDEX", "Embedding failed, memory left unindexed", map[string]interface{}{
			"memory_id": mem.Id.String(),
			"error":     err.Error(),
		})
		return
	}

	if err := uow.MemoryRepository().UpdateEmbedding(ctx, mem.Id, vector); err != nil {
		c.logger.Error("MEMORY_INDEX", "Failed to store embedding", map[string]interface{}{
			"memory_id": mem.Id.String(),
			"error":     err.Error(),
		})
		return
	}

	c.logger.Info("MEMORY_INDEX", "Memory indexed", map[string]interface{}{
		"memory_id":  mem.Id.String(),
		"dimensions": len(vector),
	})
}

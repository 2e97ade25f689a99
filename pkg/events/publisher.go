package events

import (
	"context"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Sink is the transport; *nats.Publisher implements it.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher emits the chat and memory domain events. A Publisher without a
// sink, or a nil Publisher, drops everything silently.
type Publisher struct {
	sink   Sink
	logger logger.ILogger
}

func NewPublisher(sink Sink, logger logger.ILogger) *Publisher {
	return &Publisher{
		sink:   sink,
		logger: logger,
	}
}

func (p *Publisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p == nil || p.sink == nil {
		return
	}

	evt := BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *Publisher) PublishChatLimitReached(ctx context.Context, userId uuid.UUID, tier string, limit, used int) {
	p.publish(ctx, constant.EventChatLimitReached, map[string]interface{}{
		"user_id": userId,
		"tier":    tier,
		"limit":   limit,
		"used":    used,
	})
}

func (p *Publisher) PublishMemoryCleared(ctx context.Context, userId uuid.UUID, archived, archiveFailures int) {
	p.publish(ctx, constant.EventMemoryCleared, map[string]interface{}{
		"user_id":          userId,
		"archived":         archived,
		"archive_failures": archiveFailures,
	})
}

func (p *Publisher) PublishMemoryRestored(ctx context.Context, userId, archivedId uuid.UUID) {
	p.publish(ctx, constant.EventMemoryRestored, map[string]interface{}{
		"user_id":     userId,
		"archived_id": archivedId,
		"entity_type": "archived_memory",
		"entity_id":   archivedId.String(),
	})
}

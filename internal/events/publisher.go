package events

import (
	"context"

	"memory-test-service/internal/logger"
	"memory-test-service/internal/models"
)

type Publisher interface {
	PublishTestCreated(ctx context.Context, test *models.Test) error
	PublishTestCompleted(ctx context.Context, test *models.Test) error
	PublishMemoryDeleted(ctx context.Context, memory *models.Memory, deletedBy string) error

	// Close closes the publisher and releases resources
	Close() error
}

type jsonEvent interface {
	ToJSON() ([]byte, error)
}

type EventPublisher struct {
	rabbitMQ *RabbitMQClient
	enabled  bool
	log      *logger.Logger
}

// NewEventPublisher connects to RabbitMQ. An empty URI yields a publisher
// that logs and drops every event.
func NewEventPublisher(rabbitURI string, log *logger.Logger) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{enabled: false, log: log}, nil
	}

	client, err := NewRabbitMQClient(rabbitURI, log)
	if err != nil {
		return nil, err
	}

	return &EventPublisher{
		rabbitMQ: client,
		enabled:  true,
		log:      log,
	}, nil
}

func (p *EventPublisher) PublishTestCreated(ctx context.Context, test *models.Test) error {
	return p.publish(ctx, TestCreated, NewTestCreatedEvent(
		test.ID, test.PatientID, test.CreatorID(), string(test.CreatorRole), test.TotalQuestions,
	))
}

func (p *EventPublisher) PublishTestCompleted(ctx context.Context, test *models.Test) error {
	var score, total, elapsed int
	if test.Result != nil {
		score, total, elapsed = test.Result.Score, test.Result.TotalQuestions, test.Result.TotalTimeSeconds
	}
	return p.publish(ctx, TestCompleted, NewTestCompletedEvent(test.ID, test.PatientID, score, total, elapsed))
}

func (p *EventPublisher) PublishMemoryDeleted(ctx context.Context, memory *models.Memory, deletedBy string) error {
	return p.publish(ctx, MemoryDeleted, NewMemoryDeletedEvent(memory.ID, memory.OwnerID, deletedBy))
}

func (p *EventPublisher) publish(ctx context.Context, eventType EventType, event jsonEvent) error {
	if !p.enabled {
		p.log.Debug("Event publishing is disabled, skipping event", "type", eventType)
		return nil
	}

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	if err := p.rabbitMQ.PublishEvent(ctx, ExchangeName, string(eventType), eventData); err != nil {
		return err
	}

	p.log.Debug("Published event", "type", eventType)
	return nil
}

func (p *EventPublisher) Close() error {
	if p.rabbitMQ != nil {
		return p.rabbitMQ.Close()
	}
	return nil
}

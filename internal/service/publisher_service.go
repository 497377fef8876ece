package service

import (
	"context"

	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/events"
)

// IPublisherService publishes domain events best-effort: failures are logged
// and never returned to the caller.
type IPublisherService interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}

type publisherService struct {
	publisher events.Publisher
	logger    logger.ILogger
}

func NewPublisherService(publisher events.Publisher, logger logger.ILogger) IPublisherService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &publisherService{publisher: publisher, logger: logger}
}

func (s *publisherService) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := s.publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("PublisherService", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

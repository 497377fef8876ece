package service

import (
	"context"
	"strings"

	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/events"
	pktNats "cert-evaluator-be/pkg/nats"
)

const auditDurableName = "audit-worker"

// EventSubscriber is the part of the NATS subscriber the audit worker needs.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// AuditService writes every domain event to the structured log.
type AuditService struct {
	subscriber EventSubscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber EventSubscriber, log logger.ILogger) *AuditService {
	return &AuditService{subscriber: subscriber, logger: log}
}

// Start attaches the durable consumer for all event subjects.
func (s *AuditService) Start(ctx context.Context) error {
	subject := pktNats.SubjectPrefix + ".>"
	if err := s.subscriber.Subscribe(ctx, subject, auditDurableName, s.HandleEvent); err != nil {
		s.logger.Error("AuditService", "Failed to start audit subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("AuditService", "Audit worker listening", map[string]interface{}{"subject": subject})
	return nil
}

func (s *AuditService) HandleEvent(ctx context.Context, event events.Event) error {
	eventType := strings.TrimPrefix(event.EventType(), pktNats.SubjectPrefix+".")

	details := map[string]interface{}{
		"type":        eventType,
		"occurred_at": event.Timestamp(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}

	switch eventType {
	case events.TypeEvaluationCompleted, events.TypeCriteriaStored, events.TypeSessionClosed:
		s.logger.Info("AuditService", "Event recorded", details)
	default:
		s.logger.Warn("AuditService", "Unknown event type", details)
	}

	metrics.RecordAuditedEvent(eventType)
	return nil
}

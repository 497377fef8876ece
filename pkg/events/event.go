package events

import (
	"context"
	"time"
)

const (
	TypeCriteriaStored      = "criteria.stored"
	TypeEvaluationCompleted = "evaluation.completed"
	TypeSessionClosed       = "session.closed"
)

// Event defines the contract for all domain events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event.
type Envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func ToEnvelope(e Event) Envelope {
	return Envelope{Type: e.EventType(), OccurredAt: e.Timestamp(), Data: e.Payload()}
}

func (env Envelope) Event() BaseEvent {
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}
}

// Publisher delivers events. Publication is best-effort for callers: a
// failure is logged, never returned to the user.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

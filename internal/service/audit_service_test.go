package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cert-evaluator-be/pkg/events"
	pktNats "cert-evaluator-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	level   string
	message string
	details map[string]interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, message: message, details: details})
}

func (l *recordingLogger) Debug(_, m string, d map[string]interface{}) { l.add("debug", m, d) }
func (l *recordingLogger) Info(_, m string, d map[string]interface{})  { l.add("info", m, d) }
func (l *recordingLogger) Warn(_, m string, d map[string]interface{})  { l.add("warn", m, d) }
func (l *recordingLogger) Error(_, m string, d map[string]interface{}) { l.add("error", m, d) }
func (l *recordingLogger) Sync() error                                  { return nil }

type fakeSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, subject, durable string, handler pktNats.EventHandler) error {
	f.subject, f.durable, f.handler = subject, durable, handler
	return f.err
}

func TestAuditServiceLogsEventPayload(t *testing.T) {
	log := &recordingLogger{}
	sub := &fakeSubscriber{}
	audit := NewAuditService(sub, log)

	require.NoError(t, audit.Start(context.Background()))
	assert.Equal(t, "events.>", sub.subject)
	assert.Equal(t, "audit-worker", sub.durable)

	event := events.BaseEvent{
		Type:       events.TypeEvaluationCompleted,
		Data:       map[string]interface{}{"score": 82.5, "passed": true},
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, sub.handler(context.Background(), event))

	last := log.lines[len(log.lines)-1]
	assert.Equal(t, "info", last.level)
	assert.Equal(t, "Event recorded", last.message)
	assert.Equal(t, events.TypeEvaluationCompleted, last.details["type"])
	assert.Equal(t, 82.5, last.details["score"])
	assert.Equal(t, true, last.details["passed"])
}

func TestAuditServiceWarnsOnUnknownType(t *testing.T) {
	log := &recordingLogger{}
	audit := NewAuditService(&fakeSubscriber{}, log)

	err := audit.HandleEvent(context.Background(), events.New("events.something.else", nil))
	require.NoError(t, err)

	require.Len(t, log.lines, 1)
	assert.Equal(t, "warn", log.lines[0].level)
	assert.Equal(t, "something.else", log.lines[0].details["type"])
}

func TestAuditServiceStartFailure(t *testing.T) {
	log := &recordingLogger{}
	audit := NewAuditService(&fakeSubscriber{err: errors.New("no stream")}, log)

	assert.Error(t, audit.Start(context.Background()))
	assert.Equal(t, "error", log.lines[0].level)
}

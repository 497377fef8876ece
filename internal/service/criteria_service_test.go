package service

import (
	"context"
	"testing"
	"time"

	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/memory"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryFactory() unitofwork.RepositoryFactory {
	return unitofwork.NewMemoryRepositoryFactory(memory.NewStore(time.Hour))
}

func newTestCriteriaService(factory unitofwork.RepositoryFactory) ICriteriaService {
	log := logger.NewNopLogger()
	return NewCriteriaService(factory, NewPublisherService(nil, log), log, criteria.DefaultThreshold)
}

func float(f float64) *float64 { return &f }

func TestCriteriaStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	svc := newTestCriteriaService(factory)
	sessionId := uuid.New()

	m := criteria.Map{
		"expiryDate": {Weight: 0.7, Required: true, Value: "2027-01-01"},
		"agency":     {Weight: 0.3, Value: "FAA"},
	}

	tests := []struct {
		name      string
		threshold *float64
		want      float64
	}{
		{"default threshold", nil, 70},
		{"explicit threshold", float(85), 85},
		{"clamped high", float(140), 100},
		{"clamped low", float(-3), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, warnings, err := svc.Store(ctx, sessionId, m, " FAA licence ", tt.threshold)
			require.NoError(t, err)
			assert.Empty(t, warnings)

			got, err := svc.GetById(ctx, stored.Id)
			require.NoError(t, err)
			assert.Equal(t, m, got.Criteria)
			assert.Equal(t, "FAA licence", got.Description)
			assert.Equal(t, tt.want, got.Threshold)
		})
	}

	session, err := factory.NewUnitOfWork(ctx).SessionRepository().FindById(ctx, sessionId)
	require.NoError(t, err)
	require.NotNil(t, session, "storing criteria creates the session")
}

func TestCriteriaStoreValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestCriteriaService(newMemoryFactory())

	_, _, err := svc.Store(ctx, uuid.New(), criteria.Map{}, "  ", nil)
	assert.True(t, apperr.IsValidation(err))

	_, _, err = svc.Store(ctx, uuid.New(), criteria.Map{"a": {Weight: -1}}, "", nil)
	assert.True(t, apperr.IsValidation(err))

	set, warnings, err := svc.Store(ctx, uuid.New(), criteria.Map{"a": {Weight: 0.9}, "b": {Weight: 0.9}}, "", nil)
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Len(t, warnings, 1, "overweight sets are accepted with a warning")

	set, _, err = svc.Store(ctx, uuid.New(), nil, "must be a pilot licence", nil)
	require.NoError(t, err)
	assert.Empty(t, set.Criteria)
}

func TestCriteriaHistoryAndLatest(t *testing.T) {
	ctx := context.Background()
	svc := newTestCriteriaService(newMemoryFactory())
	sessionId := uuid.New()

	latest, err := svc.GetLatest(ctx, sessionId)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first, _, err := svc.Store(ctx, sessionId, criteria.Map{"a": {Weight: 1}}, "", nil)
	require.NoError(t, err)
	second, _, err := svc.Store(ctx, sessionId, criteria.Map{"b": {Weight: 1}}, "", nil)
	require.NoError(t, err)

	latest, err = svc.GetLatest(ctx, sessionId)
	require.NoError(t, err)
	assert.Equal(t, second.Id, latest.Id)

	history, err := svc.ListHistory(ctx, sessionId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Id, history[0].Id)
	assert.Equal(t, first.Id, history[1].Id)
}

func TestCriteriaUpdateInPlace(t *testing.T) {
	ctx := context.Background()
	svc := newTestCriteriaService(newMemoryFactory())

	stored, _, err := svc.Store(ctx, uuid.New(), criteria.Map{"a": {Weight: 1}}, "old", float(60))
	require.NoError(t, err)

	updated, _, err := svc.Update(ctx, stored.Id, criteria.Map{"a": {Weight: 1, Required: true}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, stored.Id, updated.Id)
	assert.True(t, updated.Criteria["a"].Required)
	assert.Equal(t, "old", updated.Description)
	assert.Equal(t, 60.0, updated.Threshold)

	history, err := svc.ListHistory(ctx, stored.SessionId)
	require.NoError(t, err)
	assert.Len(t, history, 1, "update never creates a version")

	_, _, err = svc.Update(ctx, uuid.New(), criteria.Map{"a": {}}, nil, nil)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCriteriaDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestCriteriaService(newMemoryFactory())

	stored, _, err := svc.Store(ctx, uuid.New(), criteria.Map{"a": {Weight: 1}}, "", nil)
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, stored.Id)
	require.NoError(t, err)
	assert.Equal(t, stored.Id, removed.Id)

	_, err = svc.Delete(ctx, stored.Id)
	assert.True(t, apperr.IsNotFound(err))
}

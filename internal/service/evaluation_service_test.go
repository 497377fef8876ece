package service

import (
	"context"
	"testing"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checksOf(passed ...bool) []scoring.Check {
	names := []string{"agency", "expiryDate", "holder"}
	checks := make([]scoring.Check, 0, len(passed))
	for i, p := range passed {
		checks = append(checks, scoring.Check{Criterion: names[i], Passed: p})
	}
	return checks
}

func TestEvaluationSaveRequiresCriteria(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	log := logger.NewNopLogger()
	svc := NewEvaluationService(factory, NewPublisherService(nil, log), log)

	_, err := svc.Save(ctx, uuid.New(), uuid.New(), nil, checksOf(true), 100, true)
	assert.True(t, apperr.IsNotFound(err))
}

func TestEvaluationHistoryAndCompare(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	log := logger.NewNopLogger()
	criteriaSvc := newTestCriteriaService(factory)
	svc := NewEvaluationService(factory, NewPublisherService(nil, log), log)
	sessionId := uuid.New()
	documentId := uuid.New()

	v1, _, err := criteriaSvc.Store(ctx, sessionId, criteria.Map{
		"agency":     {Weight: 0.5, Value: "FAA"},
		"expiryDate": {Weight: 0.5, Required: true},
	}, "", nil)
	require.NoError(t, err)
	v2, _, err := criteriaSvc.Store(ctx, sessionId, criteria.Map{
		"agency":     {Weight: 0.5, Value: "EASA"},
		"expiryDate": {Weight: 0.5, Required: true},
		"holder":     {Weight: 0.2},
	}, "", nil)
	require.NoError(t, err)

	older, err := svc.Save(ctx, sessionId, v1.Id, &documentId, checksOf(false, true), 50, false)
	require.NoError(t, err)
	newer, err := svc.Save(ctx, sessionId, v2.Id, nil, checksOf(true, true, false), 83.333, true)
	require.NoError(t, err)

	latest, err := svc.GetLatest(ctx, sessionId, nil)
	require.NoError(t, err)
	assert.Equal(t, newer.Id, latest.Id)

	forDocument, err := svc.GetHistory(ctx, sessionId, &documentId)
	require.NoError(t, err)
	require.Len(t, forDocument, 1)
	assert.Equal(t, older.Id, forDocument[0].Id)

	forward, err := svc.Compare(ctx, older.Id, newer.Id)
	require.NoError(t, err)
	backward, err := svc.Compare(ctx, newer.Id, older.Id)
	require.NoError(t, err)

	assert.Equal(t, 33.33, forward.ScoreDelta)
	assert.Equal(t, -forward.ScoreDelta, backward.ScoreDelta)
	assert.Equal(t, []string{"agency", "holder"}, forward.CriteriaModified)
	assert.Equal(t, forward.CriteriaModified, backward.CriteriaModified)
	assert.True(t, forward.PassedChanged)

	require.Len(t, forward.Checks, 3)
	assert.True(t, forward.Checks[0].PassedChanged)
	assert.False(t, forward.Checks[1].PassedChanged)
	assert.Nil(t, forward.Checks[2].PreviousPassed)
	assert.False(t, *forward.Checks[2].NewPassed)
	assert.False(t, forward.Checks[2].PassedChanged)

	_, err = svc.Compare(ctx, older.Id, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}

func TestCompareAfterCriteriaDeleted(t *testing.T) {
	previous := &entity.Evaluation{Id: uuid.New(), Score: 40, Checks: checksOf(false)}
	current := &entity.Evaluation{Id: uuid.New(), Score: 40, Checks: checksOf(false)}

	c := CompareEvaluations(previous, current, criteria.Map{"agency": {Weight: 1}}, criteria.Map{})

	assert.Equal(t, []string{"agency"}, c.CriteriaModified)
	assert.Equal(t, 0.0, c.ScoreDelta)
	assert.False(t, c.PassedChanged)
}

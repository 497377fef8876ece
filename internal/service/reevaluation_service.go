package service

import (
	"context"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/scoring"
	"cert-evaluator-be/pkg/validation"

	"github.com/google/uuid"
)

type Validator interface {
	Evaluate(ctx context.Context, set *entity.CriteriaSet, documentId *uuid.UUID) (*validation.Result, error)
}

type ReevaluateInput struct {
	CriteriaUpdates map[string]interface{}
	Description     *string
	Threshold       *float64
	// InPlace overwrites the evaluated criteria version instead of storing a
	// new one.
	InPlace bool
}

type ReevaluateOutcome struct {
	Criteria   *entity.CriteriaSet
	Warnings   []string
	Evaluation *entity.Evaluation
	Score      scoring.Result
	Comparison *entity.Comparison
}

type IReevaluationService interface {
	Reevaluate(ctx context.Context, evaluationId uuid.UUID, input ReevaluateInput) (*ReevaluateOutcome, error)
}

type reevaluationService struct {
	criteriaService   ICriteriaService
	evaluationService IEvaluationService
	validator         Validator
	logger            logger.ILogger
}

func NewReevaluationService(
	criteriaService ICriteriaService,
	evaluationService IEvaluationService,
	validator Validator,
	logger logger.ILogger,
) IReevaluationService {
	return &reevaluationService{
		criteriaService:   criteriaService,
		evaluationService: evaluationService,
		validator:         validator,
		logger:            logger,
	}
}

// Reevaluate merges the updates into the criteria used by evaluationId, runs
// validation again against the same document and stores a new evaluation.
// The original evaluation is never touched.
func (s *reevaluationService) Reevaluate(ctx context.Context, evaluationId uuid.UUID, input ReevaluateInput) (*ReevaluateOutcome, error) {
	previous, err := s.evaluationService.GetById(ctx, evaluationId)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, apperr.NotFound("evaluation", evaluationId)
	}

	current, err := s.criteriaService.GetById(ctx, previous.CriteriaId)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("criteria", previous.CriteriaId)
	}

	merged, err := current.Criteria.Merge(input.CriteriaUpdates)
	if err != nil {
		return nil, err
	}

	set, warnings, err := s.persistCriteria(ctx, current, merged, input)
	if err != nil {
		return nil, err
	}

	result, err := s.validator.Evaluate(ctx, set, previous.DocumentId)
	if err != nil {
		return nil, err
	}

	score := scoring.Score(result.Checks, set.Weights(), set.Threshold)
	evaluation, err := s.evaluationService.Save(ctx, previous.SessionId, set.Id, previous.DocumentId, result.Checks, scoring.Round2(score.OverallScore), score.Passed)
	if err != nil {
		return nil, err
	}

	comparison, err := s.evaluationService.Compare(ctx, previous.Id, evaluation.Id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ReevaluationService", "Re-evaluation completed", map[string]interface{}{
		"previous_evaluation_id": previous.Id.String(),
		"evaluation_id":          evaluation.Id.String(),
		"criteria_id":            set.Id.String(),
		"in_place":               input.InPlace,
		"score_delta":            comparison.ScoreDelta,
	})

	return &ReevaluateOutcome{
		Criteria:   set,
		Warnings:   warnings,
		Evaluation: evaluation,
		Score:      score,
		Comparison: comparison,
	}, nil
}

func (s *reevaluationService) persistCriteria(ctx context.Context, current *entity.CriteriaSet, merged criteria.Map, input ReevaluateInput) (*entity.CriteriaSet, []string, error) {
	if input.InPlace {
		return s.criteriaService.Update(ctx, current.Id, merged, input.Description, input.Threshold)
	}

	unchanged := criteria.Equal(current.Criteria, merged) &&
		(input.Description == nil || *input.Description == current.Description) &&
		(input.Threshold == nil || criteria.ClampThreshold(input.Threshold) == current.Threshold)
	if unchanged {
		return current, nil, nil
	}

	description := current.Description
	if input.Description != nil {
		description = *input.Description
	}
	threshold := current.Threshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}
	return s.criteriaService.Store(ctx, current.SessionId, merged, description, &threshold)
}

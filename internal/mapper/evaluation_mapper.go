package mapper

import (
	"encoding/json"
	"fmt"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/model"
	"cert-evaluator-be/pkg/scoring"
)

type EvaluationMapper struct{}

func NewEvaluationMapper() *EvaluationMapper {
	return &EvaluationMapper{}
}

func (m *EvaluationMapper) ToEntity(e *model.Evaluation) (*entity.Evaluation, error) {
	if e == nil {
		return nil, nil
	}

	var checks []scoring.Check
	if len(e.Checks) > 0 {
		if err := json.Unmarshal(e.Checks, &checks); err != nil {
			return nil, fmt.Errorf("decode checks of evaluation %s: %w", e.Id, err)
		}
	}

	return &entity.Evaluation{
		Id:         e.Id,
		SessionId:  e.SessionId,
		CriteriaId: e.CriteriaId,
		DocumentId: e.DocumentId,
		Checks:     checks,
		Score:      e.Score,
		Passed:     e.Passed,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func (m *EvaluationMapper) ToModel(e *entity.Evaluation) (*model.Evaluation, error) {
	if e == nil {
		return nil, nil
	}

	checks := e.Checks
	if checks == nil {
		checks = []scoring.Check{}
	}
	raw, err := json.Marshal(checks)
	if err != nil {
		return nil, fmt.Errorf("encode checks of evaluation %s: %w", e.Id, err)
	}

	return &model.Evaluation{
		Id:         e.Id,
		SessionId:  e.SessionId,
		CriteriaId: e.CriteriaId,
		DocumentId: e.DocumentId,
		Checks:     raw,
		Score:      e.Score,
		Passed:     e.Passed,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func (m *EvaluationMapper) ToEntities(evaluations []*model.Evaluation) ([]*entity.Evaluation, error) {
	entities := make([]*entity.Evaluation, len(evaluations))
	for i, e := range evaluations {
		out, err := m.ToEntity(e)
		if err != nil {
			return nil, err
		}
		entities[i] = out
	}
	return entities, nil
}

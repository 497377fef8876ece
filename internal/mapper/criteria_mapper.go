package mapper

import (
	"encoding/json"
	"fmt"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/model"
	"cert-evaluator-be/pkg/criteria"
)

type CriteriaMapper struct{}

func NewCriteriaMapper() *CriteriaMapper {
	return &CriteriaMapper{}
}

func (m *CriteriaMapper) ToEntity(c *model.CriteriaSet) (*entity.CriteriaSet, error) {
	if c == nil {
		return nil, nil
	}

	parsed := criteria.Map{}
	if len(c.Criteria) > 0 {
		if err := json.Unmarshal(c.Criteria, &parsed); err != nil {
			return nil, fmt.Errorf("decode criteria of set %s: %w", c.Id, err)
		}
	}

	return &entity.CriteriaSet{
		Id:          c.Id,
		SessionId:   c.SessionId,
		Description: c.Description,
		Threshold:   c.Threshold,
		Criteria:    parsed,
		Revision:    c.Revision,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

func (m *CriteriaMapper) ToModel(c *entity.CriteriaSet) (*model.CriteriaSet, error) {
	if c == nil {
		return nil, nil
	}

	raw, err := json.Marshal(c.Criteria)
	if err != nil {
		return nil, fmt.Errorf("encode criteria of set %s: %w", c.Id, err)
	}

	return &model.CriteriaSet{
		Id:          c.Id,
		SessionId:   c.SessionId,
		Description: c.Description,
		Threshold:   c.Threshold,
		Criteria:    raw,
		Revision:    c.Revision,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

func (m *CriteriaMapper) ToEntities(sets []*model.CriteriaSet) ([]*entity.CriteriaSet, error) {
	entities := make([]*entity.CriteriaSet, len(sets))
	for i, s := range sets {
		e, err := m.ToEntity(s)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}

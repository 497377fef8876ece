package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/model"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) (*entity.Session, error) {
	if s == nil {
		return nil, nil
	}

	var fields map[string]interface{}
	if len(s.ExtractedFields) > 0 {
		if err := json.Unmarshal(s.ExtractedFields, &fields); err != nil {
			return nil, fmt.Errorf("decode extracted fields of session %s: %w", s.Id, err)
		}
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:               s.Id,
		OwnerId:          s.OwnerId,
		Status:           s.Status,
		ShouldContinue:   s.ShouldContinue,
		ActiveDocumentId: s.ActiveDocumentId,
		ActiveCriteriaId: s.ActiveCriteriaId,
		LastEvaluationId: s.LastEvaluationId,
		ExtractedFields:  fields,
		DocumentCounter:  s.DocumentCounter,
		Revision:         s.Revision,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func (m *SessionMapper) ToModel(s *entity.Session) (*model.Session, error) {
	if s == nil {
		return nil, nil
	}

	var fields datatypes.JSON
	if s.ExtractedFields != nil {
		raw, err := json.Marshal(s.ExtractedFields)
		if err != nil {
			return nil, fmt.Errorf("encode extracted fields of session %s: %w", s.Id, err)
		}
		fields = raw
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:               s.Id,
		OwnerId:          s.OwnerId,
		Status:           s.Status,
		ShouldContinue:   s.ShouldContinue,
		ActiveDocumentId: s.ActiveDocumentId,
		ActiveCriteriaId: s.ActiveCriteriaId,
		LastEvaluationId: s.LastEvaluationId,
		ExtractedFields:  fields,
		DocumentCounter:  s.DocumentCounter,
		Revision:         s.Revision,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func (m *SessionMapper) TurnToEntity(t *model.SessionTurn) *entity.SessionTurn {
	if t == nil {
		return nil
	}
	return &entity.SessionTurn{
		Id:        t.Id,
		SessionId: t.SessionId,
		Role:      t.Role,
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
	}
}

func (m *SessionMapper) TurnToModel(t *entity.SessionTurn) *model.SessionTurn {
	if t == nil {
		return nil
	}
	return &model.SessionTurn{
		Id:        t.Id,
		SessionId: t.SessionId,
		Role:      t.Role,
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
	}
}

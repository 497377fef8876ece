package dto

import (
	"time"

	"cert-evaluator-be/internal/entity"

	"github.com/google/uuid"
)

type SessionResponse struct {
	Id               uuid.UUID              `json:"id"`
	Status           string                 `json:"status"`
	ShouldContinue   bool                   `json:"should_continue"`
	ActiveDocumentId *uuid.UUID             `json:"active_document_id"`
	ActiveCriteriaId *uuid.UUID             `json:"active_criteria_id"`
	LastEvaluationId *uuid.UUID             `json:"last_evaluation_id"`
	ExtractedFields  map[string]interface{} `json:"extracted_fields"`
	DocumentCount    int                    `json:"document_count"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        *time.Time             `json:"updated_at"`
	Turns            []TurnResponse         `json:"turns,omitempty"`
}

type TurnResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSessionResponse(s *entity.Session, turns []*entity.SessionTurn) *SessionResponse {
	res := &SessionResponse{
		Id:               s.Id,
		Status:           s.Status,
		ShouldContinue:   s.ShouldContinue,
		ActiveDocumentId: s.ActiveDocumentId,
		ActiveCriteriaId: s.ActiveCriteriaId,
		LastEvaluationId: s.LastEvaluationId,
		ExtractedFields:  s.ExtractedFields,
		DocumentCount:    s.DocumentCounter,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	for _, t := range turns {
		res.Turns = append(res.Turns, TurnResponse{Role: t.Role, Text: t.Text, CreatedAt: t.CreatedAt})
	}
	return res
}

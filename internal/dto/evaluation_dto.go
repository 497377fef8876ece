package dto

import (
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
)

const (
	ReevaluateModeVersion = "version"
	ReevaluateModeInPlace = "in_place"
)

type ReevaluateRequest struct {
	CriteriaUpdates map[string]interface{} `json:"criteria_updates"`
	Description     *string                `json:"description"`
	Threshold       *float64               `json:"threshold"`
	Mode            string                 `json:"mode" validate:"omitempty,oneof=version in_place"`
}

type EvaluationResponse struct {
	Id         uuid.UUID       `json:"id"`
	SessionId  uuid.UUID       `json:"session_id"`
	CriteriaId uuid.UUID       `json:"criteria_id"`
	DocumentId *uuid.UUID      `json:"document_id"`
	Checks     []scoring.Check `json:"checks"`
	Score      float64         `json:"score"`
	Passed     bool            `json:"passed"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ReevaluateResponse struct {
	Evaluation *EvaluationResponse `json:"evaluation"`
	Criteria   *CriteriaResponse   `json:"criteria"`
	Score      *scoring.Result     `json:"score"`
	Comparison *entity.Comparison  `json:"comparison"`
}

func NewEvaluationResponse(e *entity.Evaluation) *EvaluationResponse {
	if e == nil {
		return nil
	}
	return &EvaluationResponse{
		Id:         e.Id,
		SessionId:  e.SessionId,
		CriteriaId: e.CriteriaId,
		DocumentId: e.DocumentId,
		Checks:     e.Checks,
		Score:      e.Score,
		Passed:     e.Passed,
		CreatedAt:  e.CreatedAt,
	}
}

func NewEvaluationResponses(evaluations []*entity.Evaluation) []*EvaluationResponse {
	res := make([]*EvaluationResponse, 0, len(evaluations))
	for _, e := range evaluations {
		res = append(res, NewEvaluationResponse(e))
	}
	return res
}

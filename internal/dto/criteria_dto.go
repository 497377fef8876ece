package dto

import (
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/pkg/criteria"

	"github.com/google/uuid"
)

// Criteria arrive as raw JSON objects so malformed entries surface as
// validation errors from criteria.Parse rather than decode failures.
type StoreCriteriaRequest struct {
	SessionId   uuid.UUID              `json:"session_id" validate:"required"`
	Criteria    map[string]interface{} `json:"criteria"`
	Description string                 `json:"description"`
	Threshold   *float64               `json:"threshold"`
}

type UpdateCriteriaRequest struct {
	Criteria    map[string]interface{} `json:"criteria" validate:"required"`
	Description *string                `json:"description"`
	Threshold   *float64               `json:"threshold"`
}

type CriteriaResponse struct {
	Id          uuid.UUID    `json:"id"`
	SessionId   uuid.UUID    `json:"session_id"`
	Description string       `json:"description"`
	Threshold   float64      `json:"threshold"`
	Criteria    criteria.Map `json:"criteria"`
	TotalWeight float64      `json:"total_weight"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Warnings    []string     `json:"warnings,omitempty"`
}

func NewCriteriaResponse(c *entity.CriteriaSet, warnings []string) *CriteriaResponse {
	return &CriteriaResponse{
		Id:          c.Id,
		SessionId:   c.SessionId,
		Description: c.Description,
		Threshold:   c.Threshold,
		Criteria:    c.Criteria,
		TotalWeight: c.Criteria.TotalWeight(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Warnings:    warnings,
	}
}

func NewCriteriaResponses(sets []*entity.CriteriaSet) []*CriteriaResponse {
	res := make([]*CriteriaResponse, 0, len(sets))
	for _, s := range sets {
		res = append(res, NewCriteriaResponse(s, nil))
	}
	return res
}

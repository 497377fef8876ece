package dto

import (
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
)

type TurnRequest struct {
	Text       string     `json:"text" validate:"max=4000"`
	DocumentId *uuid.UUID `json:"document_id"`
}

type TurnReplyResponse struct {
	SessionId      uuid.UUID           `json:"session_id"`
	Status         string              `json:"status"`
	ShouldContinue bool                `json:"should_continue"`
	Intent         string              `json:"intent"`
	Reply          string              `json:"reply"`
	Document       *DocumentResponse   `json:"document,omitempty"`
	Evaluation     *EvaluationResponse `json:"evaluation,omitempty"`
	Score          *scoring.Result     `json:"score,omitempty"`
	Comparison     *entity.Comparison  `json:"comparison,omitempty"`
	Warnings       []string            `json:"warnings,omitempty"`
}

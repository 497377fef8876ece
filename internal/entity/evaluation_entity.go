package entity

import (
	"time"

	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
)

// Evaluation is immutable once saved. Re-evaluation always creates a new one.
type Evaluation struct {
	Id         uuid.UUID
	SessionId  uuid.UUID
	CriteriaId uuid.UUID
	DocumentId *uuid.UUID
	Checks     []scoring.Check
	Score      float64
	Passed     bool
	CreatedAt  time.Time
}

type CheckComparison struct {
	Criterion      string `json:"criterion"`
	PassedChanged  bool   `json:"passed_changed"`
	PreviousPassed *bool  `json:"previous_passed"`
	NewPassed      *bool  `json:"new_passed"`
}

type Comparison struct {
	OldEvaluationId  uuid.UUID         `json:"old_evaluation_id"`
	NewEvaluationId  uuid.UUID         `json:"new_evaluation_id"`
	CriteriaModified []string          `json:"criteria_modified"`
	ScoreDelta       float64           `json:"score_delta"`
	PassedChanged    bool              `json:"passed_changed"`
	PreviousPassed   bool              `json:"previous_passed"`
	NewPassed        bool              `json:"new_passed"`
	Checks           []CheckComparison `json:"checks"`
}

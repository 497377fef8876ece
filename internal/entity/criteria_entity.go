package entity

import (
	"time"

	"cert-evaluator-be/pkg/criteria"

	"github.com/google/uuid"
)

type CriteriaSet struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	Description string
	Threshold   float64
	Criteria    criteria.Map
	Revision    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Weights returns the per-criterion weights used by scoring.
func (c *CriteriaSet) Weights() map[string]float64 {
	return c.Criteria.Weights()
}

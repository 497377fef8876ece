package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Evaluation struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId  uuid.UUID      `gorm:"type:uuid;not null;index:idx_evaluations_session_created,priority:1"`
	CriteriaId uuid.UUID      `gorm:"type:uuid;not null;index"`
	DocumentId *uuid.UUID     `gorm:"type:uuid;index"`
	Checks     datatypes.JSON `gorm:"type:jsonb;not null"`
	Score      float64        `gorm:"not null"`
	Passed     bool           `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index:idx_evaluations_session_created,priority:2"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

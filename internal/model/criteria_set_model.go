package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CriteriaSet struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID      `gorm:"type:uuid;not null;index:idx_criteria_sets_session_created,priority:1"`
	Description string         `gorm:"type:text"`
	Threshold   float64        `gorm:"not null;default:70"`
	Criteria    datatypes.JSON `gorm:"type:jsonb;not null"`
	Revision    int64          `gorm:"not null;default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index:idx_criteria_sets_session_created,priority:2"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (CriteriaSet) TableName() string {
	return "criteria_sets"
}

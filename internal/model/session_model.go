package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Session struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status           string         `gorm:"type:varchar(32);not null"`
	ShouldContinue   bool           `gorm:"not null;default:true"`
	ActiveDocumentId *uuid.UUID     `gorm:"type:uuid"`
	ActiveCriteriaId *uuid.UUID     `gorm:"type:uuid"`
	LastEvaluationId *uuid.UUID     `gorm:"type:uuid"`
	ExtractedFields  datatypes.JSON `gorm:"type:jsonb"`
	DocumentCounter  int            `gorm:"not null;default:0"`
	Revision         int64          `gorm:"not null;default:0"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}

type SessionTurn struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index:idx_session_turns_session_created,priority:1"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_session_turns_session_created,priority:2"`
}

func (SessionTurn) TableName() string {
	return "session_turns"
}

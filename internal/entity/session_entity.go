package entity

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Id               uuid.UUID
	OwnerId          uuid.UUID
	Status           string
	ShouldContinue   bool
	ActiveDocumentId *uuid.UUID
	ActiveCriteriaId *uuid.UUID
	LastEvaluationId *uuid.UUID
	ExtractedFields  map[string]interface{}
	DocumentCounter  int
	Revision         int64
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// NextDocumentIndex reserves the next session-scoped document index. Indexes
// are never handed out twice, even after a document is deleted.
func (s *Session) NextDocumentIndex() int {
	s.DocumentCounter++
	return s.DocumentCounter
}

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

type SessionTurn struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Text      string
	CreatedAt time.Time
}

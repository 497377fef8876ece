package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByOwnerID struct {
	OwnerID uuid.UUID
}

func (s ByOwnerID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}

// ByDocumentID filters by document when DocumentID is set and is a no-op otherwise.
type ByDocumentID struct {
	DocumentID *uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	if s.DocumentID == nil {
		return db
	}
	return db.Where("document_id = ?", *s.DocumentID)
}

// AtRevision matches a row only at the given optimistic-lock revision.
type AtRevision struct {
	Revision int64
}

func (s AtRevision) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("revision = ?", s.Revision)
}

// Newest orders by creation time descending with id as a stable tiebreak.
type Newest struct{}

func (s Newest) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

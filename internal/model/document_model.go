package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type Document struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_documents_session_index,priority:1"`
	Name          string         `gorm:"type:text;not null"`
	Index         int            `gorm:"column:doc_index;not null;uniqueIndex:idx_documents_session_index,priority:2"`
	MimeType      string         `gorm:"type:varchar(128)"`
	StoragePath   string         `gorm:"type:text"`
	ExtractedText string         `gorm:"type:text"`
	Status        string         `gorm:"type:varchar(16);not null;default:PENDING"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}

type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SessionId      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex     int             `gorm:"default:0"`
	Content        string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 both emit 768 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

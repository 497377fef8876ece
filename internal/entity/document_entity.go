package entity

import (
	"io"
	"time"

	"github.com/google/uuid"
)

const (
	DocumentStatusPending = "PENDING"
	DocumentStatusIndexed = "INDEXED"
	DocumentStatusFailed  = "FAILED"
)

type Document struct {
	Id            uuid.UUID
	SessionId     uuid.UUID
	Name          string
	Index         int
	MimeType      string
	StoragePath   string
	ExtractedText string
	Status        string
	CreatedAt     time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	SessionId  uuid.UUID
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// Upload is a document as it arrives from the caller, before it is stored.
type Upload struct {
	FileName string
	MimeType string
	Content  io.Reader
}

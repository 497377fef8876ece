package contract

import (
	"context"

	"cert-evaluator-be/internal/entity"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Document, error)
}

// ChunkSearch narrows a similarity search. Nil ids mean no filter.
type ChunkSearch struct {
	SessionId  *uuid.UUID
	DocumentId *uuid.UUID
	Limit      int
}

// ScoredDocumentChunk wraps DocumentChunk with its similarity score
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error)
	SearchSimilar(ctx context.Context, embedding []float32, search ChunkSearch) ([]*ScoredDocumentChunk, error)
}

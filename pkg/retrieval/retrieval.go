package retrieval

import (
	"context"

	"github.com/google/uuid"
)

const DefaultTopK = 4

// Chunk is one piece of supporting text returned by a search.
type Chunk struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}

// Filters narrows a search to a session and/or document.
type Filters struct {
	SessionId  *uuid.UUID
	DocumentId *uuid.UUID
	TopK       int
}

// Retriever is the semantic document-retrieval collaborator. Results are
// ordered by relevance within one call only.
type Retriever interface {
	Search(ctx context.Context, query string, filters Filters) ([]Chunk, error)
}

package retrieval

import (
	"context"
	"fmt"

	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/pkg/embedding"
)

// VectorRetriever embeds the query and runs a cosine-similarity search over
// indexed document chunks.
type VectorRetriever struct {
	embedder embedding.EmbeddingProvider
	chunks   contract.DocumentChunkRepository
}

func NewVectorRetriever(embedder embedding.EmbeddingProvider, chunks contract.DocumentChunkRepository) *VectorRetriever {
	return &VectorRetriever{embedder: embedder, chunks: chunks}
}

func (r *VectorRetriever) Search(ctx context.Context, query string, filters Filters) ([]Chunk, error) {
	topK := filters.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := r.chunks.SearchSimilar(ctx, vector, contract.ChunkSearch{
		SessionId:  filters.SessionId,
		DocumentId: filters.DocumentId,
		Limit:      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	results := make([]Chunk, 0, len(scored))
	for _, s := range scored {
		results = append(results, Chunk{
			Text: s.Chunk.Content,
			Metadata: map[string]interface{}{
				"document_id": s.Chunk.DocumentId.String(),
				"session_id":  s.Chunk.SessionId.String(),
				"chunk_index": s.Chunk.ChunkIndex,
			},
			Score: s.Similarity,
		})
	}
	return results, nil
}

package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type DocumentRepository struct {
	store *Store
}

func NewDocumentRepository(store *Store) contract.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	taken := scan(r.store.documents, func(d *entity.Document) bool {
		return d.SessionId == document.SessionId && d.Index == document.Index
	})
	if len(taken) > 0 {
		return contract.ErrDuplicate
	}

	if document.Id == uuid.Nil {
		document.Id = uuid.New()
	}
	if document.CreatedAt.IsZero() {
		document.CreatedAt = time.Now()
	}
	c := *document
	r.store.documents.Set(document.Id.String(), record[*entity.Document]{value: &c, seq: r.store.nextSeq()}, cache.NoExpiration)
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.Document](r.store.documents, id.String())
	if !found {
		return contract.ErrNotFound
	}
	c := *rec.value
	c.Status = status
	rec.value = &c
	r.store.documents.Set(id.String(), rec, cache.NoExpiration)
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.Document](r.store.documents, id.String())
	if !found || rec.value.IsDeleted {
		return nil
	}
	now := time.Now()
	c := *rec.value
	c.IsDeleted = true
	c.DeletedAt = &now
	rec.value = &c
	r.store.documents.Set(id.String(), rec, cache.NoExpiration)
	return nil
}

func (r *DocumentRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.Document](r.store.documents, id.String())
	if !found || rec.value.IsDeleted {
		return nil, nil
	}
	c := *rec.value
	return &c, nil
}

func (r *DocumentRepository) FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	documents := scan(r.store.documents, func(d *entity.Document) bool {
		return d.SessionId == sessionId && !d.IsDeleted
	})
	sort.Slice(documents, func(i, j int) bool { return documents[i].Index < documents[j].Index })
	for i, d := range documents {
		c := *d
		documents[i] = &c
	}
	return documents, nil
}

type DocumentChunkRepository struct {
	store *Store
}

func NewDocumentChunkRepository(store *Store) contract.DocumentChunkRepository {
	return &DocumentChunkRepository{store: store}
}

func (r *DocumentChunkRepository) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, chunk := range chunks {
		if chunk.Id == uuid.Nil {
			chunk.Id = uuid.New()
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = time.Now()
		}
		c := *chunk
		c.Embedding = append([]float32(nil), chunk.Embedding...)
		r.store.chunks.Set(chunk.Id.String(), record[*entity.DocumentChunk]{value: &c, seq: r.store.nextSeq()}, cache.NoExpiration)
	}
	return nil
}

func (r *DocumentChunkRepository) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, chunk := range scan(r.store.chunks, func(c *entity.DocumentChunk) bool { return c.DocumentId == documentId }) {
		r.store.chunks.Delete(chunk.Id.String())
	}
	return nil
}

func (r *DocumentChunkRepository) CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	chunks := scan(r.store.chunks, func(c *entity.DocumentChunk) bool { return c.DocumentId == documentId })
	return int64(len(chunks)), nil
}

// SearchSimilar scores every matching chunk by cosine similarity, mirroring
// the pgvector query, and skips chunks of deleted documents.
func (r *DocumentChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, search contract.ChunkSearch) ([]*contract.ScoredDocumentChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	limit := search.Limit
	if limit <= 0 {
		limit = 5
	}

	candidates := scan(r.store.chunks, func(c *entity.DocumentChunk) bool {
		if search.SessionId != nil && c.SessionId != *search.SessionId {
			return false
		}
		if search.DocumentId != nil && c.DocumentId != *search.DocumentId {
			return false
		}
		doc, found := get[*entity.Document](r.store.documents, c.DocumentId.String())
		return found && !doc.value.IsDeleted
	})

	scored := make([]*contract.ScoredDocumentChunk, 0, len(candidates))
	for _, c := range candidates {
		chunk := *c
		scored = append(scored, &contract.ScoredDocumentChunk{
			Chunk:      &chunk,
			Similarity: cosineSimilarity(embedding, c.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/embedding"
	"cert-evaluator-be/pkg/extraction"
	"cert-evaluator-be/pkg/retrieval"
	"cert-evaluator-be/pkg/retry"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto two axes so similarity is predictable.
type keywordEmbedder struct {
	fail bool
}

func (e *keywordEmbedder) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	lower := strings.ToLower(text)
	vec := []float32{0.01, 0.01}
	if strings.Contains(lower, "expir") || strings.Contains(lower, "valid until") {
		vec[0] = 1
	}
	if strings.Contains(lower, "agency") || strings.Contains(lower, "issued") {
		vec[1] = 1
	}
	return vec, nil
}

var _ embedding.EmbeddingProvider = (*keywordEmbedder)(nil)

type documentFixture struct {
	ctx       context.Context
	factory   unitofwork.RepositoryFactory
	documents IDocumentService
	sessions  ISessionService
	sessionId uuid.UUID
	uploadDir string
}

func newDocumentFixture(t *testing.T, embedder embedding.EmbeddingProvider) (*documentFixture, func(id uuid.UUID) string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.NewNopLogger()
	factory := newMemoryFactory()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	consumer := NewConsumerService(pubSub, factory, embedder, ChunkingConfig{Size: 40, Overlap: 5}, retry.Policy{}, log)
	require.NoError(t, consumer.Consume(ctx))

	uploadDir := t.TempDir()
	sessions := NewSessionService(factory)
	session, err := sessions.Create(ctx, uuid.New())
	require.NoError(t, err)

	f := &documentFixture{
		ctx:       ctx,
		factory:   factory,
		documents: NewDocumentService(factory, extraction.NewPlainTextExtractor(), pubSub, uploadDir, log),
		sessions:  sessions,
		sessionId: session.Id,
		uploadDir: uploadDir,
	}
	status := func(id uuid.UUID) string {
		doc, err := f.documents.Get(ctx, f.sessionId, id)
		if err != nil {
			return ""
		}
		return doc.Status
	}
	return f, status
}

func (f *documentFixture) ingest(name, mime, content string) (*entity.Document, error) {
	return f.documents.Ingest(f.ctx, f.sessionId, entity.Upload{FileName: name, MimeType: mime, Content: strings.NewReader(content)})
}

func TestIngestIndexesAndSearches(t *testing.T) {
	f, status := newDocumentFixture(t, &keywordEmbedder{})

	doc, err := f.ingest("licence.txt", "text/plain", "Pilot licence number 42. Valid until 2027-06-30. Issued by the agency FAA.")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Index)
	assert.Equal(t, entity.DocumentStatusPending, doc.Status)
	assert.FileExists(t, doc.StoragePath)

	require.Eventually(t, func() bool { return status(doc.Id) == entity.DocumentStatusIndexed }, 2*time.Second, 10*time.Millisecond)

	retriever := retrieval.NewVectorRetriever(&keywordEmbedder{}, f.factory.NewUnitOfWork(f.ctx).DocumentChunkRepository())
	chunks, err := retriever.Search(f.ctx, "expiry date", retrieval.Filters{SessionId: &f.sessionId, DocumentId: &doc.Id, TopK: 1})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Valid until")

	other := uuid.New()
	none, err := retriever.Search(f.ctx, "expiry date", retrieval.Filters{SessionId: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIngestIndexNeverReused(t *testing.T) {
	f, _ := newDocumentFixture(t, &keywordEmbedder{})

	first, err := f.ingest("a.txt", "text/plain", "first")
	require.NoError(t, err)
	require.NoError(t, f.documents.Delete(f.ctx, f.sessionId, first.Id))

	second, err := f.ingest("b.txt", "text/plain", "second")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Index)

	listed, err := f.documents.List(f.ctx, f.sessionId)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second.Id, listed[0].Id)

	_, err = f.documents.Get(f.ctx, uuid.New(), second.Id)
	assert.True(t, apperr.IsNotFound(err), "documents are scoped to their session")
}

func TestIngestExtractionFailure(t *testing.T) {
	f, _ := newDocumentFixture(t, &keywordEmbedder{})

	_, err := f.ingest("scan.png", "image/png", "\x89PNG")
	assert.True(t, apperr.IsExtraction(err))

	_, err = f.ingest("empty.txt", "text/plain", "   ")
	assert.True(t, apperr.IsExtraction(err))

	entries, err := os.ReadDir(f.uploadDir + "/" + f.sessionId.String())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed uploads are removed")

	session, err := f.sessions.Load(f.ctx, f.sessionId)
	require.NoError(t, err)
	assert.Zero(t, session.DocumentCounter, "no index is reserved for unreadable files")
}

func TestIndexingFailureMarksDocument(t *testing.T) {
	f, status := newDocumentFixture(t, &keywordEmbedder{fail: true})

	doc, err := f.ingest("a.txt", "text/plain", "Valid until 2027")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return status(doc.Id) == entity.DocumentStatusFailed }, 2*time.Second, 10*time.Millisecond)
}

package implementation

import (
	"context"
	"os"
	"testing"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/model"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const embeddingDims = 768

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error)
	require.NoError(t, db.AutoMigrate(
		&model.Session{}, &model.SessionTurn{}, &model.CriteriaSet{},
		&model.Document{}, &model.DocumentChunk{}, &model.Evaluation{},
	))
	return db
}

func axis(i int) []float32 {
	v := make([]float32, embeddingDims)
	v[i] = 1
	return v
}

func TestPostgresSessionRevisionConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	session := &entity.Session{Id: uuid.New(), OwnerId: uuid.New(), Status: "AWAITING_UPLOAD", ShouldContinue: true}
	require.NoError(t, repo.Create(ctx, session))

	first, err := repo.FindById(ctx, session.Id)
	require.NoError(t, err)
	stale, err := repo.FindById(ctx, session.Id)
	require.NoError(t, err)

	first.Status = "AWAITING_CRITERIA"
	require.NoError(t, repo.Update(ctx, first))

	stale.Status = "VALIDATED"
	assert.ErrorIs(t, repo.Update(ctx, stale), contract.ErrRevisionConflict)

	stored, err := repo.FindById(ctx, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "AWAITING_CRITERIA", stored.Status)
}

func TestPostgresCriteriaVersions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCriteriaRepository(db)
	sessionId := uuid.New()

	older := &entity.CriteriaSet{Id: uuid.New(), SessionId: sessionId, Threshold: 70,
		Criteria: criteria.Map{"agency": {Weight: 1, Required: true, Value: "FAA"}}}
	newer := &entity.CriteriaSet{Id: uuid.New(), SessionId: sessionId, Threshold: 80,
		Criteria: criteria.Map{"agency": {Weight: 1, Required: true, Value: "EASA"}}}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	latest, err := repo.FindLatestBySession(ctx, sessionId)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.Id, latest.Id)
	assert.Equal(t, "EASA", latest.Criteria["agency"].Value)

	history, err := repo.FindAllBySession(ctx, sessionId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer.Id, history[0].Id)
}

func TestPostgresChunkSearchScopedToSession(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	chunks := NewDocumentChunkRepository(db)

	sessionId, otherSession := uuid.New(), uuid.New()
	documentId := uuid.New()
	require.NoError(t, chunks.CreateBulk(ctx, []*entity.DocumentChunk{
		{Id: uuid.New(), DocumentId: documentId, SessionId: sessionId, ChunkIndex: 0, Content: "Valid until 2027", Embedding: axis(0)},
		{Id: uuid.New(), DocumentId: documentId, SessionId: sessionId, ChunkIndex: 1, Content: "Issued by FAA", Embedding: axis(1)},
		{Id: uuid.New(), DocumentId: uuid.New(), SessionId: otherSession, ChunkIndex: 0, Content: "Valid until 2030", Embedding: axis(0)},
	}))

	found, err := chunks.SearchSimilar(ctx, axis(0), contract.ChunkSearch{SessionId: &sessionId, Limit: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Valid until 2027", found[0].Chunk.Content)
	assert.InDelta(t, 1.0, found[0].Similarity, 1e-6)
}

func TestPostgresDocumentIndexIsUniquePerSession(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(db)
	sessionId := uuid.New()

	require.NoError(t, repo.Create(ctx, &entity.Document{Id: uuid.New(), SessionId: sessionId, Name: "a.pdf", Index: 1, Status: entity.DocumentStatusPending}))
	err := repo.Create(ctx, &entity.Document{Id: uuid.New(), SessionId: sessionId, Name: "b.pdf", Index: 1, Status: entity.DocumentStatusPending})
	assert.ErrorIs(t, err, contract.ErrDuplicate)

	docs, err := repo.FindAllBySession(ctx, sessionId)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

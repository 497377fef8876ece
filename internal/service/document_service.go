package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cert-evaluator-be/internal/dto"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/extraction"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const IndexDocumentTopic = "documents.index"

type IDocumentService interface {
	// Ingest stores the file, extracts its text and records it under the
	// next session-scoped index. Indexing continues asynchronously.
	Ingest(ctx context.Context, sessionId uuid.UUID, upload entity.Upload) (*entity.Document, error)
	Get(ctx context.Context, sessionId, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, sessionId uuid.UUID) ([]*entity.Document, error)
	Delete(ctx context.Context, sessionId, id uuid.UUID) error
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	extractor  extraction.Extractor
	publisher  message.Publisher
	uploadDir  string
	logger     logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	extractor extraction.Extractor,
	publisher message.Publisher,
	uploadDir string,
	logger logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		extractor:  extractor,
		publisher:  publisher,
		uploadDir:  uploadDir,
		logger:     logger,
	}
}

func (s *documentService) Ingest(ctx context.Context, sessionId uuid.UUID, upload entity.Upload) (*entity.Document, error) {
	name := filepath.Base(strings.TrimSpace(upload.FileName))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return nil, apperr.Validation("file", "must have a name")
	}

	documentId := uuid.New()
	path, err := s.save(sessionId, documentId, name, upload.Content)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.ExtractText(ctx, path, upload.MimeType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("document contains no text")
	}
	if err != nil {
		_ = os.Remove(path)
		if !apperr.IsExtraction(err) {
			err = &apperr.ExtractionError{FileName: name, Err: err}
		}
		s.logger.Warn("DocumentService", "Text extraction failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"file":       name,
			"error":      err.Error(),
		})
		return nil, err
	}

	index, err := s.reserveIndex(ctx, sessionId)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	document := &entity.Document{
		Id:            documentId,
		SessionId:     sessionId,
		Name:          name,
		Index:         index,
		MimeType:      upload.MimeType,
		StoragePath:   path,
		ExtractedText: text,
		Status:        entity.DocumentStatusPending,
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		return nil, err
	}

	if err := s.enqueueIndexing(document.Id); err != nil {
		s.logger.Error("DocumentService", "Failed to enqueue indexing", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err,
		})
		if statusErr := uow.DocumentRepository().UpdateStatus(ctx, document.Id, entity.DocumentStatusFailed); statusErr == nil {
			document.Status = entity.DocumentStatusFailed
		}
	}

	s.logger.Info("DocumentService", "Document ingested", map[string]interface{}{
		"document_id": document.Id.String(),
		"session_id":  sessionId.String(),
		"index":       index,
		"chars":       len(text),
	})
	return document, nil
}

func (s *documentService) save(sessionId, documentId uuid.UUID, name string, content io.Reader) (string, error) {
	dir := filepath.Join(s.uploadDir, sessionId.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, documentId.String()+filepath.Ext(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

// reserveIndex bumps the session's document counter with compare-and-set so
// two uploads can never receive the same index.
func (s *documentService) reserveIndex(ctx context.Context, sessionId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions := uow.SessionRepository()

	for attempt := 1; ; attempt++ {
		session, err := sessions.FindById(ctx, sessionId)
		if err != nil {
			return 0, err
		}
		if session == nil {
			return 0, apperr.NotFound("session", sessionId)
		}

		index := session.NextDocumentIndex()
		err = sessions.Update(ctx, session)
		if errors.Is(err, contract.ErrRevisionConflict) && attempt < maxUpdateAttempts {
			continue
		}
		if err != nil {
			return 0, err
		}
		return index, nil
	}
}

func (s *documentService) enqueueIndexing(documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.IndexDocumentMessage{DocumentId: documentId})
	if err != nil {
		return err
	}
	return s.publisher.Publish(IndexDocumentTopic, message.NewMessage(watermill.NewUUID(), payload))
}

func (s *documentService) Get(ctx context.Context, sessionId, id uuid.UUID) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if document == nil || document.SessionId != sessionId {
		return nil, apperr.NotFound("document", id)
	}
	return document, nil
}

func (s *documentService) List(ctx context.Context, sessionId uuid.UUID) ([]*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().FindAllBySession(ctx, sessionId)
}

// Delete soft-deletes the document. Its chunks stop matching searches and its
// index is never handed out again.
func (s *documentService) Delete(ctx context.Context, sessionId, id uuid.UUID) error {
	if _, err := s.Get(ctx, sessionId, id); err != nil {
		return err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().Delete(ctx, id)
}

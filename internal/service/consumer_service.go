package service

import (
	"context"
	"encoding/json"
	"time"

	"cert-evaluator-be/internal/dto"
	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/embedding"
	"cert-evaluator-be/pkg/retry"
	"cert-evaluator-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type ChunkingConfig struct {
	Size    int
	Overlap int
}

// consumerService indexes uploaded documents: split, embed, store. The
// document ends INDEXED or FAILED; it never stays PENDING after processing.
type consumerService struct {
	subscriber        message.Subscriber
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	chunking          ChunkingConfig
	policy            retry.Policy
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	chunking ChunkingConfig,
	policy retry.Policy,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		chunking:          chunking,
		policy:            policy,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, IndexDocumentTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal indexing message", map[string]interface{}{"error": err})
		msg.Ack() // poison message, do not redeliver
		return
	}

	status := entity.DocumentStatusIndexed
	if err := cs.index(ctx, payload.DocumentId); err != nil {
		status = entity.DocumentStatusFailed
		cs.logger.Error("ConsumerService", "Document indexing failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err,
		})
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, payload.DocumentId, status); err != nil {
		cs.logger.Error("ConsumerService", "Failed to update document status", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err,
		})
	}
	metrics.RecordIndexing(status)
	msg.Ack()
}

func (cs *consumerService) index(ctx context.Context, documentId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindById(ctx, documentId)
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	pieces := utils.SplitText(document.ExtractedText, cs.chunking.Size, cs.chunking.Overlap)
	chunks := make([]*entity.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		started := time.Now()
		vector, err := retry.Call(ctx, "embedding", cs.policy, func(ctx context.Context) ([]float32, error) {
			return cs.embeddingProvider.Generate(ctx, piece, embedding.TaskRetrievalDocument)
		})
		if err != nil {
			metrics.RecordCollaborator("embedding", "error", started)
			return err
		}
		metrics.RecordCollaborator("embedding", "ok", started)

		chunks = append(chunks, &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: document.Id,
			SessionId:  document.SessionId,
			ChunkIndex: i,
			Content:    piece,
			Embedding:  vector,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	cs.logger.Info("ConsumerService", "Document indexed", map[string]interface{}{
		"document_id": document.Id.String(),
		"chunks":      len(chunks),
	})
	return nil
}

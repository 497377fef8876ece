package contract

import (
	"context"

	"cert-evaluator-be/internal/entity"

	"github.com/google/uuid"
)

type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *entity.Evaluation) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error)
	// FindLatest and FindHistory filter by document when documentId is set.
	FindLatest(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) (*entity.Evaluation, error)
	FindHistory(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) ([]*entity.Evaluation, error)
}

package unitofwork

import (
	"context"

	"cert-evaluator-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	CriteriaRepository() contract.CriteriaRepository
	EvaluationRepository() contract.EvaluationRepository
}

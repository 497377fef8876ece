package unitofwork

import (
	"context"

	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/memory"
)

type MemoryRepositoryFactory struct {
	store *memory.Store
}

// NewMemoryRepositoryFactory serves every unit of work from one shared
// in-memory store.
func NewMemoryRepositoryFactory(store *memory.Store) RepositoryFactory {
	return &MemoryRepositoryFactory{store: store}
}

func (f *MemoryRepositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return &MemoryUnitOfWork{store: f.store}
}

// MemoryUnitOfWork has no real transactions: writes are visible as soon as
// they are made and Rollback does not undo them. Callers still follow the
// Begin/Commit/Rollback protocol so either backend can be swapped in.
type MemoryUnitOfWork struct {
	store *memory.Store
}

func (u *MemoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *MemoryUnitOfWork) Commit() error                   { return nil }
func (u *MemoryUnitOfWork) Rollback() error                 { return nil }

func (u *MemoryUnitOfWork) SessionRepository() contract.SessionRepository {
	return memory.NewSessionRepository(u.store)
}

func (u *MemoryUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return memory.NewDocumentRepository(u.store)
}

func (u *MemoryUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository {
	return memory.NewDocumentChunkRepository(u.store)
}

func (u *MemoryUnitOfWork) CriteriaRepository() contract.CriteriaRepository {
	return memory.NewCriteriaRepository(u.store)
}

func (u *MemoryUnitOfWork) EvaluationRepository() contract.EvaluationRepository {
	return memory.NewEvaluationRepository(u.store)
}

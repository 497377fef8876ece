package memory

import (
	"context"
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type EvaluationRepository struct {
	store *Store
}

func NewEvaluationRepository(store *Store) contract.EvaluationRepository {
	return &EvaluationRepository{store: store}
}

func (r *EvaluationRepository) Create(ctx context.Context, evaluation *entity.Evaluation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if evaluation.Id == uuid.Nil {
		evaluation.Id = uuid.New()
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now()
	}
	r.store.evaluations.Set(evaluation.Id.String(), record[*entity.Evaluation]{value: cloneEvaluation(evaluation), seq: r.store.nextSeq()}, cache.NoExpiration)
	return nil
}

func (r *EvaluationRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.Evaluation](r.store.evaluations, id.String())
	if !found {
		return nil, nil
	}
	return cloneEvaluation(rec.value), nil
}

func (r *EvaluationRepository) FindLatest(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) (*entity.Evaluation, error) {
	history, err := r.FindHistory(ctx, sessionId, documentId)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return history[0], nil
}

func (r *EvaluationRepository) FindHistory(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) ([]*entity.Evaluation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	evaluations := scan(r.store.evaluations, func(e *entity.Evaluation) bool {
		if e.SessionId != sessionId {
			return false
		}
		if documentId == nil {
			return true
		}
		return e.DocumentId != nil && *e.DocumentId == *documentId
	})
	for i, e := range evaluations {
		evaluations[i] = cloneEvaluation(e)
	}
	return evaluations, nil
}

func cloneEvaluation(e *entity.Evaluation) *entity.Evaluation {
	c := *e
	if e.Checks != nil {
		c.Checks = append([]scoring.Check(nil), e.Checks...)
	}
	return &c
}

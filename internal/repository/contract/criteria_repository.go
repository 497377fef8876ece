package contract

import (
	"context"

	"cert-evaluator-be/internal/entity"

	"github.com/google/uuid"
)

type CriteriaRepository interface {
	Create(ctx context.Context, set *entity.CriteriaSet) error
	// Update overwrites the addressed version in place, guarded by Revision.
	Update(ctx context.Context, set *entity.CriteriaSet) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error)
	FindLatestBySession(ctx context.Context, sessionId uuid.UUID) (*entity.CriteriaSet, error)
	// FindAllBySession returns every version, newest first.
	FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.CriteriaSet, error)
}

package contract

import (
	"context"

	"cert-evaluator-be/internal/entity"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	// Update writes the session only if its Revision still matches the stored
	// one, then bumps Revision. A stale write returns ErrRevisionConflict.
	Update(ctx context.Context, session *entity.Session) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Session, error)
	AppendTurn(ctx context.Context, turn *entity.SessionTurn) error
	// RecentTurns returns at most limit turns, oldest first.
	RecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.SessionTurn, error)
}

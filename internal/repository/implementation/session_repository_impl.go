package implementation

import (
	"context"
	"errors"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/mapper"
	"cert-evaluator-be/internal/model"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *entity.Session) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*session = *created
	return nil
}

func (r *SessionRepositoryImpl) Update(ctx context.Context, session *entity.Session) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	expected := session.Revision
	m.Revision = expected + 1

	query := applySpecifications(r.db.WithContext(ctx).Model(m), specification.AtRevision{Revision: expected})
	result := query.Select("*").Omit("created_at").Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrRevisionConflict
	}

	session.Revision = m.Revision
	if !m.UpdatedAt.IsZero() {
		t := m.UpdatedAt
		session.UpdatedAt = &t
	}
	return nil
}

func (r *SessionRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var m model.Session
	query := applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *SessionRepositoryImpl) FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Session, error) {
	var models []*model.Session
	query := applySpecifications(r.db.WithContext(ctx), specification.ByOwnerID{OwnerID: ownerId}, specification.Newest{})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Session, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *SessionRepositoryImpl) AppendTurn(ctx context.Context, turn *entity.SessionTurn) error {
	m := r.mapper.TurnToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.TurnToEntity(m)
	return nil
}

func (r *SessionRepositoryImpl) RecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.SessionTurn, error) {
	var models []*model.SessionTurn
	query := applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.Newest{},
		specification.Pagination{Limit: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	// newest-first from the query, flipped so callers can replay them in order
	turns := make([]*entity.SessionTurn, len(models))
	for i, m := range models {
		turns[len(models)-1-i] = r.mapper.TurnToEntity(m)
	}
	return turns, nil
}

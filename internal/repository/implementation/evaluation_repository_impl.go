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

type EvaluationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.EvaluationMapper
}

func NewEvaluationRepository(db *gorm.DB) contract.EvaluationRepository {
	return &EvaluationRepositoryImpl{
		db:     db,
		mapper: mapper.NewEvaluationMapper(),
	}
}

func (r *EvaluationRepositoryImpl) Create(ctx context.Context, evaluation *entity.Evaluation) error {
	m, err := r.mapper.ToModel(evaluation)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*evaluation = *created
	return nil
}

func (r *EvaluationRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error) {
	var m model.Evaluation
	query := applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *EvaluationRepositoryImpl) FindLatest(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) (*entity.Evaluation, error) {
	var m model.Evaluation
	query := applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.ByDocumentID{DocumentID: documentId},
		specification.Newest{},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *EvaluationRepositoryImpl) FindHistory(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) ([]*entity.Evaluation, error) {
	var models []*model.Evaluation
	query := applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.ByDocumentID{DocumentID: documentId},
		specification.Newest{},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

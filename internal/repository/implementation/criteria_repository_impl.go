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

type CriteriaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CriteriaMapper
}

func NewCriteriaRepository(db *gorm.DB) contract.CriteriaRepository {
	return &CriteriaRepositoryImpl{
		db:     db,
		mapper: mapper.NewCriteriaMapper(),
	}
}

func (r *CriteriaRepositoryImpl) Create(ctx context.Context, set *entity.CriteriaSet) error {
	m, err := r.mapper.ToModel(set)
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
	*set = *created
	return nil
}

func (r *CriteriaRepositoryImpl) Update(ctx context.Context, set *entity.CriteriaSet) error {
	m, err := r.mapper.ToModel(set)
	if err != nil {
		return err
	}
	expected := set.Revision
	m.Revision = expected + 1

	query := applySpecifications(r.db.WithContext(ctx).Model(m), specification.AtRevision{Revision: expected})
	result := query.Select("description", "threshold", "criteria", "revision", "updated_at").Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrRevisionConflict
	}

	set.Revision = m.Revision
	set.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *CriteriaRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CriteriaSet{}, id).Error
}

func (r *CriteriaRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error) {
	return r.findOne(ctx, specification.ByID{ID: id})
}

func (r *CriteriaRepositoryImpl) FindLatestBySession(ctx context.Context, sessionId uuid.UUID) (*entity.CriteriaSet, error) {
	return r.findOne(ctx, specification.BySessionID{SessionID: sessionId}, specification.Newest{})
}

func (r *CriteriaRepositoryImpl) FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.CriteriaSet, error) {
	var models []*model.CriteriaSet
	query := applySpecifications(r.db.WithContext(ctx), specification.BySessionID{SessionID: sessionId}, specification.Newest{})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *CriteriaRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.CriteriaSet, error) {
	var m model.CriteriaSet
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

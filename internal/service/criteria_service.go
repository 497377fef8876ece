package service

import (
	"context"
	"errors"
	"strings"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/events"

	"github.com/google/uuid"
)

const maxUpdateAttempts = 3

// ICriteriaService is the versioned criteria store. Store always appends a
// new version; Update overwrites one version in place.
type ICriteriaService interface {
	Store(ctx context.Context, sessionId uuid.UUID, m criteria.Map, description string, threshold *float64) (*entity.CriteriaSet, []string, error)
	GetLatest(ctx context.Context, sessionId uuid.UUID) (*entity.CriteriaSet, error)
	GetById(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error)
	Update(ctx context.Context, id uuid.UUID, m criteria.Map, description *string, threshold *float64) (*entity.CriteriaSet, []string, error)
	ListHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.CriteriaSet, error)
	Delete(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error)
}

type criteriaService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
	defaultThreshold float64
}

func NewCriteriaService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	logger logger.ILogger,
	defaultThreshold float64,
) ICriteriaService {
	return &criteriaService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           logger,
		defaultThreshold: defaultThreshold,
	}
}

func (s *criteriaService) validate(m criteria.Map, description string) ([]string, error) {
	if len(m) == 0 && strings.TrimSpace(description) == "" {
		return nil, apperr.Validation("criteria", "must contain at least one criterion or a description")
	}
	return m.Validate()
}

func (s *criteriaService) threshold(requested *float64, fallback float64) float64 {
	t := fallback
	if requested != nil {
		t = *requested
	}
	return criteria.ClampThreshold(&t)
}

func (s *criteriaService) Store(ctx context.Context, sessionId uuid.UUID, m criteria.Map, description string, threshold *float64) (*entity.CriteriaSet, []string, error) {
	warnings, err := s.validate(m, description)
	if err != nil {
		return nil, nil, err
	}

	set := &entity.CriteriaSet{
		Id:          uuid.New(),
		SessionId:   sessionId,
		Description: strings.TrimSpace(description),
		Threshold:   s.threshold(threshold, s.defaultThreshold),
		Criteria:    m,
	}
	if set.Criteria == nil {
		set.Criteria = criteria.Map{}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer uow.Rollback()

	if err := ensureSession(ctx, uow.SessionRepository(), sessionId); err != nil {
		return nil, nil, err
	}
	if err := uow.CriteriaRepository().Create(ctx, set); err != nil {
		return nil, nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, nil, err
	}

	s.logWarnings(set, warnings)
	s.publisherService.Publish(ctx, events.TypeCriteriaStored, map[string]interface{}{
		"criteria_id": set.Id.String(),
		"session_id":  sessionId.String(),
		"criteria":    set.Criteria.Names(),
		"threshold":   set.Threshold,
	})
	return set, warnings, nil
}

func (s *criteriaService) GetLatest(ctx context.Context, sessionId uuid.UUID) (*entity.CriteriaSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CriteriaRepository().FindLatestBySession(ctx, sessionId)
}

func (s *criteriaService) GetById(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CriteriaRepository().FindById(ctx, id)
}

// Update re-reads and retries when a concurrent writer bumps the revision.
// A nil description or threshold keeps the stored value.
func (s *criteriaService) Update(ctx context.Context, id uuid.UUID, m criteria.Map, description *string, threshold *float64) (*entity.CriteriaSet, []string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.CriteriaRepository()

	for attempt := 1; ; attempt++ {
		set, err := repo.FindById(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if set == nil {
			return nil, nil, apperr.NotFound("criteria", id)
		}

		if description != nil {
			set.Description = strings.TrimSpace(*description)
		}
		set.Threshold = s.threshold(threshold, set.Threshold)
		set.Criteria = m
		if set.Criteria == nil {
			set.Criteria = criteria.Map{}
		}

		warnings, err := s.validate(set.Criteria, set.Description)
		if err != nil {
			return nil, nil, err
		}
		if err := ensureSession(ctx, uow.SessionRepository(), set.SessionId); err != nil {
			return nil, nil, err
		}

		err = repo.Update(ctx, set)
		if errors.Is(err, contract.ErrRevisionConflict) && attempt < maxUpdateAttempts {
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		s.logWarnings(set, warnings)
		return set, warnings, nil
	}
}

func (s *criteriaService) ListHistory(ctx context.Context, sessionId uuid.UUID) ([]*entity.CriteriaSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CriteriaRepository().FindAllBySession(ctx, sessionId)
}

func (s *criteriaService) Delete(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	set, err := uow.CriteriaRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, apperr.NotFound("criteria", id)
	}
	if err := uow.CriteriaRepository().Delete(ctx, id); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *criteriaService) logWarnings(set *entity.CriteriaSet, warnings []string) {
	for _, w := range warnings {
		s.logger.Warn("CriteriaService", w, map[string]interface{}{
			"criteria_id":  set.Id.String(),
			"total_weight": set.Criteria.TotalWeight(),
		})
	}
}

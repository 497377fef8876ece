package service

import (
	"context"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/metrics"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/criteria"
	"cert-evaluator-be/pkg/events"
	"cert-evaluator-be/pkg/scoring"

	"github.com/google/uuid"
)

// IEvaluationService stores immutable evaluation runs and compares them.
type IEvaluationService interface {
	Save(ctx context.Context, sessionId, criteriaId uuid.UUID, documentId *uuid.UUID, checks []scoring.Check, score float64, passed bool) (*entity.Evaluation, error)
	GetLatest(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) (*entity.Evaluation, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) ([]*entity.Evaluation, error)
	GetById(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error)
	Compare(ctx context.Context, oldId, newId uuid.UUID) (*entity.Comparison, error)
}

type evaluationService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewEvaluationService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	logger logger.ILogger,
) IEvaluationService {
	return &evaluationService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           logger,
	}
}

func (s *evaluationService) Save(ctx context.Context, sessionId, criteriaId uuid.UUID, documentId *uuid.UUID, checks []scoring.Check, score float64, passed bool) (*entity.Evaluation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	set, err := uow.CriteriaRepository().FindById(ctx, criteriaId)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, apperr.NotFound("criteria", criteriaId)
	}

	evaluation := &entity.Evaluation{
		Id:         uuid.New(),
		SessionId:  sessionId,
		CriteriaId: criteriaId,
		DocumentId: documentId,
		Checks:     append([]scoring.Check(nil), checks...),
		Score:      score,
		Passed:     passed,
	}
	if err := uow.EvaluationRepository().Create(ctx, evaluation); err != nil {
		return nil, err
	}

	metrics.RecordEvaluation(score, passed)
	s.logger.Info("EvaluationService", "Evaluation saved", map[string]interface{}{
		"evaluation_id": evaluation.Id.String(),
		"criteria_id":   criteriaId.String(),
		"score":         score,
		"passed":        passed,
	})

	data := map[string]interface{}{
		"evaluation_id": evaluation.Id.String(),
		"session_id":    sessionId.String(),
		"criteria_id":   criteriaId.String(),
		"score":         score,
		"passed":        passed,
	}
	if documentId != nil {
		data["document_id"] = documentId.String()
	}
	s.publisherService.Publish(ctx, events.TypeEvaluationCompleted, data)

	return evaluation, nil
}

func (s *evaluationService) GetLatest(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) (*entity.Evaluation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.EvaluationRepository().FindLatest(ctx, sessionId, documentId)
}

func (s *evaluationService) GetHistory(ctx context.Context, sessionId uuid.UUID, documentId *uuid.UUID) ([]*entity.Evaluation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.EvaluationRepository().FindHistory(ctx, sessionId, documentId)
}

func (s *evaluationService) GetById(ctx context.Context, id uuid.UUID) (*entity.Evaluation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.EvaluationRepository().FindById(ctx, id)
}

// Compare reports what changed from oldId to newId. A criteria version that
// has since been deleted compares as an empty set.
func (s *evaluationService) Compare(ctx context.Context, oldId, newId uuid.UUID) (*entity.Comparison, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	evaluations := uow.EvaluationRepository()

	previous, err := evaluations.FindById(ctx, oldId)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return nil, apperr.NotFound("evaluation", oldId)
	}
	current, err := evaluations.FindById(ctx, newId)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("evaluation", newId)
	}

	previousCriteria, err := s.criteriaOf(ctx, uow, previous)
	if err != nil {
		return nil, err
	}
	currentCriteria, err := s.criteriaOf(ctx, uow, current)
	if err != nil {
		return nil, err
	}

	return CompareEvaluations(previous, current, previousCriteria, currentCriteria), nil
}

func (s *evaluationService) criteriaOf(ctx context.Context, uow unitofwork.UnitOfWork, e *entity.Evaluation) (criteria.Map, error) {
	set, err := uow.CriteriaRepository().FindById(ctx, e.CriteriaId)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return criteria.Map{}, nil
	}
	return set.Criteria, nil
}

// CompareEvaluations is the pure part of Compare. Checks are aligned by
// position; a position present on one side only has a nil value on the other
// and does not count as a flip.
func CompareEvaluations(previous, current *entity.Evaluation, previousCriteria, currentCriteria criteria.Map) *entity.Comparison {
	size := len(previous.Checks)
	if len(current.Checks) > size {
		size = len(current.Checks)
	}

	checks := make([]entity.CheckComparison, 0, size)
	for i := 0; i < size; i++ {
		var c entity.CheckComparison
		if i < len(previous.Checks) {
			passed := previous.Checks[i].Passed
			c.Criterion = previous.Checks[i].Criterion
			c.PreviousPassed = &passed
		}
		if i < len(current.Checks) {
			passed := current.Checks[i].Passed
			c.Criterion = current.Checks[i].Criterion
			c.NewPassed = &passed
		}
		c.PassedChanged = c.PreviousPassed != nil && c.NewPassed != nil && *c.PreviousPassed != *c.NewPassed
		checks = append(checks, c)
	}

	return &entity.Comparison{
		OldEvaluationId:  previous.Id,
		NewEvaluationId:  current.Id,
		CriteriaModified: criteria.Diff(previousCriteria, currentCriteria),
		ScoreDelta:       scoring.Round2(current.Score - previous.Score),
		PassedChanged:    previous.Passed != current.Passed,
		PreviousPassed:   previous.Passed,
		NewPassed:        current.Passed,
		Checks:           checks,
	}
}

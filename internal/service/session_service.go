package service

import (
	"context"
	"errors"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/internal/repository/unitofwork"
	"cert-evaluator-be/pkg/apperr"
	"cert-evaluator-be/pkg/conversation"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, ownerId uuid.UUID) (*entity.Session, error)
	// Get returns the session only to its owner. A foreign session is
	// reported as not found.
	Get(ctx context.Context, ownerId, id uuid.UUID) (*entity.Session, error)
	List(ctx context.Context, ownerId uuid.UUID) ([]*entity.Session, error)

	Load(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	Save(ctx context.Context, session *entity.Session) error
	AppendTurn(ctx context.Context, sessionId uuid.UUID, role, text string) error
	RecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.SessionTurn, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory) ISessionService {
	return &sessionService{uowFactory: uowFactory}
}

func newSession(id, ownerId uuid.UUID) *entity.Session {
	return &entity.Session{
		Id:             id,
		OwnerId:        ownerId,
		Status:         string(conversation.AwaitingUpload),
		ShouldContinue: true,
	}
}

// ensureSession creates the addressed session if it does not exist yet.
func ensureSession(ctx context.Context, repo contract.SessionRepository, sessionId uuid.UUID) error {
	existing, err := repo.FindById(ctx, sessionId)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if err := repo.Create(ctx, newSession(sessionId, uuid.Nil)); err != nil && !errors.Is(err, contract.ErrDuplicate) {
		return err
	}
	return nil
}

func (s *sessionService) Create(ctx context.Context, ownerId uuid.UUID) (*entity.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := newSession(uuid.New(), ownerId)
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, ownerId, id uuid.UUID) (*entity.Session, error) {
	session, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.OwnerId != ownerId {
		return nil, apperr.NotFound("session", id)
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context, ownerId uuid.UUID) ([]*entity.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SessionRepository().FindAllByOwner(ctx, ownerId)
}

func (s *sessionService) Load(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.NotFound("session", id)
	}
	return session, nil
}

func (s *sessionService) Save(ctx context.Context, session *entity.Session) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SessionRepository().Update(ctx, session)
}

func (s *sessionService) AppendTurn(ctx context.Context, sessionId uuid.UUID, role, text string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SessionRepository().AppendTurn(ctx, &entity.SessionTurn{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      role,
		Text:      text,
	})
}

func (s *sessionService) RecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.SessionTurn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SessionRepository().RecentTurns(ctx, sessionId, limit)
}

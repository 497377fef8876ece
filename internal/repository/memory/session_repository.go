package memory

import (
	"context"
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	store *Store
}

func NewSessionRepository(store *Store) contract.SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if _, found := r.store.sessions.Get(session.Id.String()); found {
		return contract.ErrDuplicate
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	r.store.sessions.Set(session.Id.String(), record[*entity.Session]{value: cloneSession(session), seq: r.store.nextSeq()}, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Update(ctx context.Context, session *entity.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, found := get[*entity.Session](r.store.sessions, session.Id.String())
	if !found || current.value.Revision != session.Revision {
		return contract.ErrRevisionConflict
	}

	now := time.Now()
	session.Revision++
	session.UpdatedAt = &now
	current.value = cloneSession(session)
	r.store.sessions.Set(session.Id.String(), current, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.Session](r.store.sessions, id.String())
	if !found {
		return nil, nil
	}
	return cloneSession(rec.value), nil
}

func (r *SessionRepository) FindAllByOwner(ctx context.Context, ownerId uuid.UUID) ([]*entity.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions := scan(r.store.sessions, func(s *entity.Session) bool { return s.OwnerId == ownerId })
	for i, s := range sessions {
		sessions[i] = cloneSession(s)
	}
	return sessions, nil
}

func (r *SessionRepository) AppendTurn(ctx context.Context, turn *entity.SessionTurn) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if turn.Id == uuid.Nil {
		turn.Id = uuid.New()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	key := turn.SessionId.String()
	var turns []entity.SessionTurn
	if x, found := r.store.turns.Get(key); found {
		turns = x.([]entity.SessionTurn)
	}
	turns = append(turns[:len(turns):len(turns)], *turn)
	r.store.turns.Set(key, turns, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) RecentTurns(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.SessionTurn, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	x, found := r.store.turns.Get(sessionId.String())
	if !found {
		return []*entity.SessionTurn{}, nil
	}
	turns := x.([]entity.SessionTurn)
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]*entity.SessionTurn, len(turns))
	for i := range turns {
		t := turns[i]
		out[i] = &t
	}
	return out, nil
}

func cloneSession(s *entity.Session) *entity.Session {
	c := *s
	if s.ExtractedFields != nil {
		c.ExtractedFields = make(map[string]interface{}, len(s.ExtractedFields))
		for k, v := range s.ExtractedFields {
			c.ExtractedFields[k] = v
		}
	}
	return &c
}

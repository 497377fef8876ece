package memory

import (
	"context"
	"time"

	"cert-evaluator-be/internal/entity"
	"cert-evaluator-be/internal/repository/contract"
	"cert-evaluator-be/pkg/criteria"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type CriteriaRepository struct {
	store *Store
}

func NewCriteriaRepository(store *Store) contract.CriteriaRepository {
	return &CriteriaRepository{store: store}
}

func (r *CriteriaRepository) Create(ctx context.Context, set *entity.CriteriaSet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if set.Id == uuid.Nil {
		set.Id = uuid.New()
	}
	now := time.Now()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now
	r.store.criteria.Set(set.Id.String(), record[*entity.CriteriaSet]{value: cloneCriteriaSet(set), seq: r.store.nextSeq()}, cache.NoExpiration)
	return nil
}

func (r *CriteriaRepository) Update(ctx context.Context, set *entity.CriteriaSet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.CriteriaSet](r.store.criteria, set.Id.String())
	if !found || rec.value.Revision != set.Revision {
		return contract.ErrRevisionConflict
	}

	set.Revision++
	set.UpdatedAt = time.Now()
	set.CreatedAt = rec.value.CreatedAt
	set.SessionId = rec.value.SessionId
	rec.value = cloneCriteriaSet(set)
	r.store.criteria.Set(set.Id.String(), rec, cache.NoExpiration)
	return nil
}

func (r *CriteriaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.criteria.Delete(id.String())
	return nil
}

func (r *CriteriaRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.CriteriaSet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, found := get[*entity.CriteriaSet](r.store.criteria, id.String())
	if !found {
		return nil, nil
	}
	return cloneCriteriaSet(rec.value), nil
}

func (r *CriteriaRepository) FindLatestBySession(ctx context.Context, sessionId uuid.UUID) (*entity.CriteriaSet, error) {
	sets, err := r.FindAllBySession(ctx, sessionId)
	if err != nil || len(sets) == 0 {
		return nil, err
	}
	return sets[0], nil
}

func (r *CriteriaRepository) FindAllBySession(ctx context.Context, sessionId uuid.UUID) ([]*entity.CriteriaSet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sets := scan(r.store.criteria, func(s *entity.CriteriaSet) bool { return s.SessionId == sessionId })
	for i, s := range sets {
		sets[i] = cloneCriteriaSet(s)
	}
	return sets, nil
}

func cloneCriteriaSet(s *entity.CriteriaSet) *entity.CriteriaSet {
	c := *s
	if s.Criteria != nil {
		c.Criteria = make(criteria.Map, len(s.Criteria))
		for name, criterion := range s.Criteria {
			c.Criteria[name] = criterion
		}
	}
	return &c
}

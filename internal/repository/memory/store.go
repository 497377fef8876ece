package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// Store holds every in-memory table. Sessions and their turns expire after the
// session TTL of inactivity; criteria, evaluations and documents live for the
// process lifetime.
type Store struct {
	mu sync.Mutex

	sessions    *cache.Cache
	turns       *cache.Cache
	documents   *cache.Cache
	chunks      *cache.Cache
	criteria    *cache.Cache
	evaluations *cache.Cache

	seq uint64
}

func NewStore(sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = cache.NoExpiration
	}
	return &Store{
		sessions:    cache.New(sessionTTL, cleanupInterval),
		turns:       cache.New(sessionTTL, cleanupInterval),
		documents:   cache.New(cache.NoExpiration, 0),
		chunks:      cache.New(cache.NoExpiration, 0),
		criteria:    cache.New(cache.NoExpiration, 0),
		evaluations: cache.New(cache.NoExpiration, 0),
	}
}

// record keeps insertion order next to the value so "newest first" stays
// stable when timestamps collide.
type record[T any] struct {
	value T
	seq   uint64
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// scan returns all values in c matching keep, newest first. Callers hold s.mu.
func scan[T any](c *cache.Cache, keep func(T) bool) []T {
	items := c.Items()
	records := make([]record[T], 0, len(items))
	for _, item := range items {
		rec, ok := item.Object.(record[T])
		if !ok || !keep(rec.value) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq > records[j].seq })

	values := make([]T, len(records))
	for i, rec := range records {
		values[i] = rec.value
	}
	return values
}

func get[T any](c *cache.Cache, key string) (record[T], bool) {
	x, found := c.Get(key)
	if !found {
		return record[T]{}, false
	}
	rec, ok := x.(record[T])
	return rec, ok
}

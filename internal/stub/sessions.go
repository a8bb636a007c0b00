package stub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/priyanshu2307/Newschat/internal/models"
)

// DefaultSessionTTL is how long an idle session survives.
const DefaultSessionTTL = time.Hour

// sessionStore keeps per-session histories in memory. Every access renews
// the session's expiry, so sessions only expire when idle.
type sessionStore struct {
	ttl   time.Duration
	mu    sync.Mutex
	cache *cache.Cache
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &sessionStore{ttl: ttl, cache: cache.New(ttl, cleanup)}
}

// create mints a new empty session.
func (s *sessionStore) create() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(id, []models.Message{}, s.ttl)
	return id
}

// history returns a copy of the session's messages and renews it.
func (s *sessionStore) history(id string) ([]models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.getLocked(id)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, msgs, s.ttl)
	return append([]models.Message{}, msgs...), true
}

// appendMessages adds msgs to the session and renews it.
func (s *sessionStore) appendMessages(id string, msgs ...models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.getLocked(id)
	if !ok {
		return false
	}
	next := make([]models.Message, 0, len(cur)+len(msgs))
	next = append(next, cur...)
	next = append(next, msgs...)
	s.cache.Set(id, next, s.ttl)
	return true
}

// clear empties the session's history; the session itself stays alive.
func (s *sessionStore) clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.getLocked(id); !ok {
		return false
	}
	s.cache.Set(id, []models.Message{}, s.ttl)
	return true
}

// exists reports whether id is a live session without renewing it.
func (s *sessionStore) exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.getLocked(id)
	return ok
}

func (s *sessionStore) count() int {
	return s.cache.ItemCount()
}

func (s *sessionStore) getLocked(id string) ([]models.Message, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	msgs, ok := v.([]models.Message)
	return msgs, ok
}

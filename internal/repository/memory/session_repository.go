package memory

import (
	"context"
	"sync"
	"time"

	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/pkg/chat/session"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps one live chat session per user in process. Idle
// sessions expire; eviction flushes any pending write and closes the session.
type SessionRepository struct {
	cache  *cache.Cache
	create sync.Mutex
	logger logger.ILogger

	// live holds every session not yet closed, including ones the cache
	// already treats as expired but has not swept.
	liveMu sync.Mutex
	live   map[string]*session.Session
}

func NewSessionRepository(ttl time.Duration, log logger.ILogger) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	r := &SessionRepository{
		cache:  cache.New(ttl, 10*time.Minute),
		logger: log,
		live:   make(map[string]*session.Session),
	}
	r.cache.OnEvicted(r.evicted)
	return r
}

func (r *SessionRepository) evicted(key string, value interface{}) {
	s, ok := value.(*session.Session)
	if !ok {
		return
	}
	r.release(key, s)
}

// release flushes and closes s once, whichever of eviction or replacement
// gets to it first.
func (r *SessionRepository) release(key string, s *session.Session) {
	r.liveMu.Lock()
	if r.live[key] != s {
		r.liveMu.Unlock()
		return
	}
	delete(r.live, key)
	r.liveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.PendingWrite() {
		if err := s.Flush(ctx); err != nil {
			r.logger.Warn("SESSION_REPO", "Flush on eviction failed", map[string]interface{}{
				"user_id": key,
				"error":   err.Error(),
			})
		}
	}
	s.Close()
}

func (r *SessionRepository) Save(s *session.Session) {
	key := s.UserId().String()
	r.liveMu.Lock()
	old := r.live[key]
	r.liveMu.Unlock()
	if old != nil && old != s {
		r.release(key, old)
	}

	r.liveMu.Lock()
	r.live[key] = s
	r.liveMu.Unlock()
	r.cache.Set(key, s, cache.DefaultExpiration)
}

// Get returns the live session and refreshes its expiry.
func (r *SessionRepository) Get(userId uuid.UUID) (*session.Session, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		s := x.(*session.Session)
		r.cache.Set(userId.String(), s, cache.DefaultExpiration)
		return s, true
	}
	return nil, false
}

// GetOrCreate returns the live session or stores the one build returns.
// created is true when build ran. An expired session the janitor has not
// swept yet is closed before it is replaced.
func (r *SessionRepository) GetOrCreate(userId uuid.UUID, build func() *session.Session) (s *session.Session, created bool) {
	if s, ok := r.Get(userId); ok {
		return s, false
	}

	r.create.Lock()
	defer r.create.Unlock()
	if s, ok := r.Get(userId); ok {
		return s, false
	}
	s = build()
	r.Save(s)
	return s, true
}

func (r *SessionRepository) Delete(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

package memory

import (
	"time"

	"ai-chat-be/pkg/session"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRegistry holds the live conversation sessions, one per open chat.
// Sessions idle for an hour are evicted; the next request rebuilds the
// transient list from persisted truth.
type SessionRegistry struct {
	cache *cache.Cache
}

func NewSessionRegistry() *SessionRegistry {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRegistry{
		cache: c,
	}
}

func (r *SessionRegistry) Save(chatId uuid.UUID, s *session.Session) {
	r.cache.Set(chatId.String(), s, cache.DefaultExpiration)
}

func (r *SessionRegistry) Get(chatId uuid.UUID) (*session.Session, bool) {
	if x, found := r.cache.Get(chatId.String()); found {
		return x.(*session.Session), true
	}
	return nil, false
}

func (r *SessionRegistry) Delete(chatId uuid.UUID) {
	r.cache.Delete(chatId.String())
}

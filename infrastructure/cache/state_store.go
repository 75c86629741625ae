package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const statePrefix = "oauth:state:"

// StateStore holds single-use OAuth state values with a TTL. Redis is
// preferred so state survives across instances; without Redis it degrades to
// an in-memory map (single-instance only).
type StateStore struct {
	redis *redis.Client

	mu     sync.Mutex
	states map[string]stateEntry
}

type stateEntry struct {
	userID    string
	expiresAt time.Time
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{redis: client, states: map[string]stateEntry{}}
}

// Save binds a state value to the user who initiated the link flow.
func (s *StateStore) Save(ctx context.Context, state, userID string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if s.redis != nil {
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.redis.Set(rctx, statePrefix+state, userID, ttl).Err(); err == nil {
			return
		}
	}
	s.mu.Lock()
	s.states[state] = stateEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Consume validates and removes a state value, returning the bound user id.
// A state is usable exactly once; unknown or expired states return false.
func (s *StateStore) Consume(ctx context.Context, state string) (string, bool) {
	if s.redis != nil {
		rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if v, err := s.redis.GetDel(rctx, statePrefix+state).Result(); err == nil {
			return v, v != ""
		}
	}
	s.mu.Lock()
	entry, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.userID, true
}

package workorder

import (
	"context"
	"sync"
	"time"
)

// Store holds live workflow sessions in memory, keyed by token. Sessions
// idle past the TTL are swept; an expired session simply disappears, which
// matches the draft's discard-on-exit lifecycle.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.Token] = s
}

func (st *Store) Get(token string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[token]
	return s, ok
}

func (st *Store) Delete(token string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, token)
}

// Sweep drops sessions idle past the TTL and reports how many were removed.
func (st *Store) Sweep() int {
	cutoff := time.Now().Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for token, s := range st.sessions {
		if s.TouchedAt().Before(cutoff) {
			delete(st.sessions, token)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps periodically until the context is cancelled.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.Sweep()
			}
		}
	}()
}

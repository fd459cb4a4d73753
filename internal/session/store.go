package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store maps a chat ID to exactly one live session. Sessions are created on
// demand and live in memory only; losing them on restart is acceptable.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for chatID, creating an Idle one if none exists.
func (st *Store) Get(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[chatID]
	if !ok {
		s = &Session{ChatID: chatID, Mode: Idle, LastActive: time.Now()}
		st.sessions[chatID] = s
	}
	return s
}

// Reset replaces the session for chatID with a fresh Idle one and returns it.
func (st *Store) Reset(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &Session{ChatID: chatID, Mode: Idle, LastActive: time.Now()}
	st.sessions[chatID] = s
	return s
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict drops sessions idle for longer than maxIdle and returns how many
// were dropped.
func (st *Store) Evict(maxIdle time.Duration, now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	var n int
	for id, s := range st.sessions {
		if now.Sub(s.LastActive) > maxIdle {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Janitor periodically evicts idle sessions until ctx is canceled. Eviction
// is a memory hygiene measure, not a correctness requirement: an evicted
// user simply starts a fresh run.
func (st *Store) Janitor(ctx context.Context, interval, maxIdle time.Duration, l zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := st.Evict(maxIdle, time.Now()); n > 0 {
				l.Info().Int("evicted", n).Msg("dropped idle sessions")
			}
		case <-ctx.Done():
			return
		}
	}
}

package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shopaiassist/containerapp/pkg/auth"
	"github.com/shopaiassist/containerapp/pkg/observability"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process session store for local development and
// tests. A background sweep evicts expired sessions; reads also check
// expiry so a session never outlives its TTL between sweeps.
type MemoryStore struct {
	ttl     time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics

	mu      sync.RWMutex
	entries map[string]memoryEntry

	sweeper *cron.Cron
	now     func() time.Time
}

// NewMemoryStore creates a memory session store and starts its sweeper.
// metrics may be nil.
func NewMemoryStore(ttl time.Duration, logger *observability.Logger, metrics *observability.Metrics) *MemoryStore {
	s := &MemoryStore{
		ttl:     ttl,
		logger:  logger.WithField("component", "session_store"),
		metrics: metrics,
		entries: make(map[string]memoryEntry),
		sweeper: cron.New(),
		now:     time.Now,
	}

	// The schedule only bounds memory held by abandoned sessions; expiry
	// correctness is enforced on read.
	s.sweeper.AddFunc("@every 1m", s.sweep)
	s.sweeper.Start()
	return s
}

// Save serializes the user, so later mutations of the caller's value never
// reach the store. Get deserializes a fresh value per read, matching the
// Redis store's behavior.
func (s *MemoryStore) Save(ctx context.Context, sessionID string, user *auth.LoggedInUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.metrics.SetSessionsActive(len(s.entries))
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*auth.LoggedInUser, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	var user auth.LoggedInUser
	if err := json.Unmarshal(entry.data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	s.metrics.SetSessionsActive(len(s.entries))
	return nil
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.sweeper.Stop()
	return nil
}

func (s *MemoryStore) sweep() {
	now := s.now()
	swept := 0

	s.mu.Lock()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			swept++
		}
	}
	s.metrics.SetSessionsActive(len(s.entries))
	s.mu.Unlock()

	if swept > 0 {
		s.logger.WithField("count", swept).Debug("Swept expired sessions")
	}
}

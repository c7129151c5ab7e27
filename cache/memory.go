package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// Memory implements Counter and Denylist in-process, for single-instance
// development runs and tests.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	counts  map[string]memoryEntry
	revoked map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{
		now:     time.Now,
		counts:  make(map[string]memoryEntry),
		revoked: make(map[string]time.Time),
	}
}

func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.counts[key]
	if !ok || !now.Before(e.expiresAt) {
		e = memoryEntry{expiresAt: now.Add(window)}
	}
	e.count++
	m.counts[key] = e
	return e.count, e.expiresAt.Sub(now), nil
}

func (m *Memory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.revoked[tokenID] = until
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !m.now().Before(until) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

package catalog

import (
	"context"
	"sync"
	"time"

	"insurance-quote-workers/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

const memoryCacheSize = 4

type memoryEntry struct {
	plans    []models.InsurancePlan
	storedAt time.Time
}

// MemorySource holds the most recent catalog in process so that busy workers
// do not hit Redis on every job. Concurrent misses share one upstream read.
type MemorySource struct {
	next  Source
	cache *lru.Cache[string, memoryEntry]
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
}

func NewMemorySource(next Source, ttl time.Duration) (*MemorySource, error) {
	cache, err := lru.New[string, memoryEntry](memoryCacheSize)
	if err != nil {
		return nil, err
	}
	return &MemorySource{next: next, cache: cache, ttl: ttl, now: time.Now}, nil
}

func (m *MemorySource) Name() string { return m.next.Name() }

func (m *MemorySource) Plans(ctx context.Context) ([]models.InsurancePlan, error) {
	key := m.next.Name()
	if plans, ok := m.fresh(key); ok {
		return plans, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if plans, ok := m.fresh(key); ok {
		return plans, nil
	}

	plans, err := m.next.Plans(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, memoryEntry{plans: plans, storedAt: m.now()})
	return plans, nil
}

func (m *MemorySource) fresh(key string) ([]models.InsurancePlan, bool) {
	entry, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.storedAt) >= m.ttl {
		m.cache.Remove(key)
		return nil, false
	}
	return entry.plans, true
}

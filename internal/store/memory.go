package store

import (
	"context"
	"sync"
	"time"
)

// staleGrace is how long an expired entry survives for the sticky
// fallback before the janitor removes it.
const staleGrace = time.Hour

// Memory is the in-process Store. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	counters map[string]*counter
	capacity int

	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	count       int64
	windowStart time.Time
	window      time.Duration
}

// NewMemory creates an in-memory store holding at most capacity
// entries. capacity <= 0 means unbounded.
func NewMemory(capacity int) *Memory {
	m := &Memory{
		entries:  make(map[string]Entry),
		counters: make(map[string]*counter),
		capacity: capacity,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Close stops the janitor goroutine. Safe to call more than once; the
// store itself remains usable.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && m.capacity > 0 && len(m.entries) >= m.capacity {
		m.evictOldest()
	}
	m.entries[key] = Entry{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

func (m *Memory) Increment(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, ok := m.counters[key]
	if !ok || !now.Before(c.windowStart.Add(c.window)) {
		c = &counter{windowStart: now, window: window}
		m.counters[key] = c
	}
	c.count++
	return c.count, c.windowStart.Add(c.window), nil
}

func (m *Memory) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, e := range m.entries {
		if oldestKey == "" || e.StoredAt.Before(oldest) {
			oldestKey = key
			oldest = e.StoredAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if now.After(e.ExpiresAt.Add(staleGrace)) {
			delete(m.entries, key)
		}
	}
	for key, c := range m.counters {
		if now.After(c.windowStart.Add(2 * c.window)) {
			delete(m.counters, key)
		}
	}
}

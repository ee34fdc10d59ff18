package store

import (
	"context"
	"testing"
	"time"
)

// newTestMemory builds a memory store with a controllable clock and no
// background janitor.
func newTestMemory(capacity int) (*Memory, *time.Time) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	m := &Memory{
		entries:  make(map[string]Entry),
		counters: make(map[string]*counter),
		capacity: capacity,
		stop:     make(chan struct{}),
	}
	m.now = func() time.Time { return now }
	return m, &now
}

func TestMemoryTTLBoundary(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(10)

	if err := m.Set(ctx, "k", []byte("v"), 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(100*time.Millisecond - time.Millisecond)
	e, ok, _ := m.Get(ctx, "k")
	if !ok || !e.Fresh(m.now()) {
		t.Error("entry should be fresh at T+TTL-1ms")
	}

	*now = now.Add(2 * time.Millisecond)
	e, ok, _ = m.Get(ctx, "k")
	if !ok {
		t.Fatal("entry should still exist past TTL until evicted")
	}
	if e.Fresh(m.now()) {
		t.Error("entry should not be fresh at T+TTL+1ms")
	}
}

func TestMemoryCapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(2)

	m.Set(ctx, "a", []byte("1"), time.Minute)
	*now = now.Add(time.Second)
	m.Set(ctx, "b", []byte("2"), time.Minute)
	*now = now.Add(time.Second)
	m.Set(ctx, "c", []byte("3"), time.Minute)

	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, key := range []string{"b", "c"} {
		if _, ok, _ := m.Get(ctx, key); !ok {
			t.Errorf("entry %q should survive", key)
		}
	}
}

func TestMemorySetExistingKeyDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(2)

	m.Set(ctx, "a", []byte("1"), time.Minute)
	m.Set(ctx, "b", []byte("2"), time.Minute)
	m.Set(ctx, "a", []byte("updated"), time.Minute)

	e, ok, _ := m.Get(ctx, "a")
	if !ok || string(e.Value) != "updated" {
		t.Error("overwrite lost the entry")
	}
	if _, ok, _ := m.Get(ctx, "b"); !ok {
		t.Error("overwriting an existing key must not evict another entry")
	}
}

func TestMemoryIncrementWindowReset(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(10)

	for i := 1; i <= 3; i++ {
		count, _, err := m.Increment(ctx, "client", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if count != int64(i) {
			t.Errorf("call %d: count = %d", i, count)
		}
	}

	// Next window starts fresh.
	*now = now.Add(time.Minute + time.Second)
	count, reset, err := m.Increment(ctx, "client", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count after window reset = %d, want 1", count)
	}
	if !reset.After(m.now()) {
		t.Errorf("reset %v should be in the future", reset)
	}
}

func TestMemoryCloseStopsJanitor(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4)

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal("second close must be a no-op, got", err)
	}

	// The store stays usable after the janitor is gone.
	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Error("entry should survive a closed store")
	}
}

func TestMemoryCountersIndependentPerKey(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(10)

	m.Increment(ctx, "a", time.Minute)
	m.Increment(ctx, "a", time.Minute)
	count, _, _ := m.Increment(ctx, "b", time.Minute)
	if count != 1 {
		t.Errorf("counter b = %d, want 1", count)
	}
}

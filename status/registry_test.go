package status

import (
	"sync"
	"testing"
)

// TestMetricMapGetCaches tests repeated Get returns the same pointer
func TestMetricMapGetCaches(t *testing.T) {
	r := NewRegistry()
	a := r.Ints.Get(KeyPollsSpawned)
	b := r.Ints.Get(KeyPollsSpawned)
	if a != b {
		t.Errorf("Expected cached pointer")
	}
	if _, ok := r.Ints.Lookup(KeyPollsJoined); ok {
		t.Errorf("Expected Lookup not to register")
	}
}

// TestMetricMapConcurrentGet tests concurrent registration yields one metric
func TestMetricMapConcurrentGet(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Ints.Get(KeyPollsInflight).Add(1)
		}()
	}
	wg.Wait()

	if r.Ints.Count() != 1 {
		t.Errorf("Expected 1 metric, got %d", r.Ints.Count())
	}
	if got := r.Ints.Get(KeyPollsInflight).Load(); got != 50 {
		t.Errorf("Expected 50, got %d", got)
	}
}

// TestSnapshotOrder tests snapshot groups by type and sorts keys
func TestSnapshotOrder(t *testing.T) {
	r := NewRegistry()
	r.Bools.Get(KeySessionActive).Store(true)
	r.Ints.Get(KeyPollsSpawned).Store(3)
	r.Ints.Get(KeyPollsDelivered).Store(2)
	r.Floats.Get(KeyPollLatencyMs).Set(1.5)
	r.Strings.Get(KeyDriverName).Store("tcell-sim")

	snap := r.Snapshot()
	want := []Sample{
		{KeySessionActive, "true"},
		{KeyPollsDelivered, "2"},
		{KeyPollsSpawned, "3"},
		{KeyPollLatencyMs, "1.500"},
		{KeyDriverName, "tcell-sim"},
	}
	if len(snap) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(snap))
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("Sample %d: expected %+v, got %+v", i, want[i], snap[i])
		}
	}
}

// TestAtomicFloatMax tests Max only raises the value
func TestAtomicFloatMax(t *testing.T) {
	var f AtomicFloat
	f.Max(3)
	f.Max(1)
	if got := f.Get(); got != 3 {
		t.Errorf("Expected 3, got %v", got)
	}
}

// TestAtomicStringTruncates tests long values are cut to MaxStringLen
func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Errorf("Expected zero value to be empty")
	}
	long := "0123456789012345678901234567890123456789"
	s.Store(long)
	if got := s.Load(); got != long[:MaxStringLen] {
		t.Errorf("Expected truncated value, got %q", got)
	}
}

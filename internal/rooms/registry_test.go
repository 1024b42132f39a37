package rooms

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.Count() != 0 {
		t.Error("new registry should have no sessions")
	}
}

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()
	rt := NewRuntime("ABC123", "capital of France", "Paris", 60, time.Now())
	r.Put("ABC123", rt)

	got := r.Get("ABC123")
	if got != rt {
		t.Fatal("Get() should return the stored runtime")
	}
	if got.TimeLeft != 60 {
		t.Errorf("TimeLeft = %d, want 60", got.TimeLeft)
	}
	if len(got.Attempts) != 0 {
		t.Errorf("Attempts should start empty, got %v", got.Attempts)
	}
	if r.Get("ZZZZZZ") != nil {
		t.Error("Get() should return nil for unknown code")
	}

	if removed := r.Remove("ABC123"); removed != rt {
		t.Error("Remove() should return the removed runtime")
	}
	if r.Get("ABC123") != nil {
		t.Error("runtime should be gone after Remove()")
	}
	if r.Remove("ABC123") != nil {
		t.Error("second Remove() should return nil")
	}
}

func TestRuntime_StopIsIdempotent(t *testing.T) {
	rt := NewRuntime("ABC123", "q", "a", 60, time.Now())
	calls := 0
	rt.SetStop(func() { calls++ })

	rt.Stop()
	rt.Stop()
	rt.Stop()

	if calls != 1 {
		t.Errorf("stop called %d times, want 1", calls)
	}
}

func TestRuntime_StopWithoutTicker(t *testing.T) {
	rt := NewRuntime("ABC123", "q", "a", 60, time.Now())
	// Should not panic
	rt.Stop()
}

func TestRegistry_LockSerializesSameCode(t *testing.T) {
	r := NewRegistry()
	var inside, maxInside int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := r.Lock("ABC123")
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("%d holders inside the same lock at once, want 1", maxInside)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.locks) != 0 {
		t.Errorf("lock table should be empty after all unlocks, has %d", len(r.locks))
	}
}

func TestRegistry_LockDifferentCodesDoNotBlock(t *testing.T) {
	r := NewRegistry()
	unlockA := r.Lock("AAAAAA")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := r.Lock("BBBBBB")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking a different code blocked")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _ := GenerateCode()
			r.Put(code, NewRuntime(code, "q", "a", 60, time.Now()))
			r.Get(code)
		}()
	}
	wg.Wait()

	if r.Count() != 50 {
		t.Errorf("concurrent puts: got %d sessions, want 50", r.Count())
	}
}

package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://example.com/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://example.com/1") {
		t.Error("second Add of same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetPreservesOrder(t *testing.T) {
	s := NewURLSet()
	s.Add("https://example.com/b")
	s.Add("https://example.com/a")
	s.Add("https://example.com/b")
	s.Add("https://example.com/c")

	got := s.Values()
	want := []string{"https://example.com/b", "https://example.com/a", "https://example.com/c"}
	if len(got) != len(want) {
		t.Fatalf("values: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("values[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("https://example.com/same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(3, 0, 0)

	var running, peak int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency: got %d, want <= 3", peak)
	}
}

func TestWorkerPoolPacing(t *testing.T) {
	pace := 50 * time.Millisecond
	pool := NewWorkerPool(1, pace, pace)

	var timestamps []time.Time
	gate := make(chan struct{}, 1)
	gate <- struct{}{}

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			<-gate
			timestamps = append(timestamps, time.Now())
			gate <- struct{}{}
		})
	}
	pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i].Sub(timestamps[i-1]); gap < pace {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, pace)
		}
	}
}

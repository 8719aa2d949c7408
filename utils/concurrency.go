package utils

import (
	"sync"
	"time"

	random "github.com/mazen160/go-random"
)

// WorkerPool bounds how many scrape tasks run at once. Before a freed
// slot is reused, a randomized pacing delay between minPace and maxPace
// is applied so requests do not hit the source in a detectable rhythm.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
	minPace   time.Duration
	maxPace   time.Duration
}

// NewWorkerPool creates a WorkerPool with the given concurrency limit
// and pacing bounds. A zero maxPace disables pacing.
func NewWorkerPool(maxWorkers int, minPace, maxPace time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		minPace:   minPace,
		maxPace:   maxPace,
	}
}

// Submit blocks until a concurrency slot is free, then runs job in its
// own goroutine. The slot is released after the pacing delay.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() {
			wp.pace()
			<-wp.semaphore
		}()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) pace() {
	RandomPause(wp.minPace, wp.maxPace)
}

// RandomPause sleeps for a random duration between lo and hi. A zero
// hi is a no-op.
func RandomPause(lo, hi time.Duration) {
	if hi <= 0 {
		return
	}

	loMs := int(lo / time.Millisecond)
	hiMs := int(hi / time.Millisecond)
	ms := loMs
	if hiMs > loMs {
		if n, err := random.IntRange(loMs, hiMs); err == nil {
			ms = n
		} else {
			ms = hiMs
		}
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// URLSet is a thread-safe set of URLs that remembers insertion order.
type URLSet struct {
	mu    sync.RWMutex
	seen  map[string]struct{}
	order []string
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains returns true if the URL is already in the set.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Values returns the URLs in first-seen order.
func (s *URLSet) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// writesPerMinute caps mutating requests per client IP.
	writesPerMinute = 60
	staleClientAge  = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// rateLimiter throttles write requests per client IP with a fixed
// one-minute window.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	stopCh   chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStale()
		case <-rl.stopCh:
			return
		}
	}
}

// dropStale evicts clients that have been quiet long enough that their
// window is irrelevant.
func (rl *rateLimiter) dropStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleClientAge)
	for ip, c := range rl.clients {
		if c.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// allow reports whether a write from clientIP fits inside the current
// window, recording a hit in metrics when it does not.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.windowStart) > time.Minute {
		rl.clients[clientIP] = &clientWindow{windowStart: now, count: 1}
		return true
	}

	c.count++
	if c.count > writesPerMinute {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// Package ratelimit provides token bucket rate limiting for the API.
// Generation-triggering endpoints get a much tighter budget than reads,
// since each one can fan out into several backend calls.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Rule pairs a bucket shape with the requests it governs.
type Rule struct {
	Capacity   int     // burst capacity
	RefillRate float64 // tokens per second
}

// Config holds the per-category rules.
type Config struct {
	Generation Rule // POST endpoints that trigger backend generation
	Default    Rule // everything else
}

// DefaultConfig allows 5 generation requests in a burst refilling one
// every 6 seconds, and 60 general requests refilling one per second.
func DefaultConfig() Config {
	return Config{
		Generation: Rule{Capacity: 5, RefillRate: 1.0 / 6.0},
		Default:    Rule{Capacity: 60, RefillRate: 1.0},
	}
}

type bucket struct {
	capacity   int
	refillRate float64
	tokens     float64
	lastRefill time.Time
}

func (b *bucket) allow(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Limiter tracks one bucket per client per category.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
}

// NewLimiter creates a limiter and starts a background sweep that drops
// buckets idle for over an hour.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow reports whether the client may make this request now.
func (l *Limiter) Allow(clientID, path, method string) bool {
	rule := l.cfg.Default
	category := "default"
	if isGeneration(path, method) {
		rule = l.cfg.Generation
		category = "generation"
	}

	key := clientID + "|" + category

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			capacity:   rule.Capacity,
			refillRate: rule.RefillRate,
			tokens:     float64(rule.Capacity),
			lastRefill: now,
		}
		l.buckets[key] = b
	}
	return b.allow(now)
}

// Stop halts the background sweep.
func (l *Limiter) Stop() {
	close(l.stop)
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Hour)
			l.mu.Lock()
			for key, b := range l.buckets {
				if b.lastRefill.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// isGeneration marks the requests that can trigger backend generation
// calls: session creation, interview answers, outreach, and resume.
func isGeneration(path, method string) bool {
	if method != "POST" {
		return false
	}
	if path == "/sessions" {
		return true
	}
	return strings.HasPrefix(path, "/sessions/") &&
		(strings.HasSuffix(path, "/interview-answer") ||
			strings.HasSuffix(path, "/outreach") ||
			strings.HasSuffix(path, "/resume"))
}

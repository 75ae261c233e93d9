package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages per-platform rate limiters for outbound API calls
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a platform
// requestsPerSecond: the rate limit (e.g. 1 means one request per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Default rate limiter names
const (
	LimiterFacebook = "facebook"
	LimiterTwitter  = "twitter"
	LimiterLinkedIn = "linkedin"
	LimiterTelegram = "telegram"
)

// NewDefaultLimiter creates a limiter with default platform rate limits
func NewDefaultLimiter() *MultiLimiter {
	m := NewMultiLimiter()

	// Facebook Graph: 200 calls per hour per page, burst 10
	m.AddLimiter(LimiterFacebook, 200.0/3600, 10)

	// Twitter: 300 requests per 15 min = ~0.33 per second, burst 50
	m.AddLimiter(LimiterTwitter, 300.0/(15*60), 50)

	// LinkedIn: 100 requests per day, burst 5
	m.AddLimiter(LimiterLinkedIn, 100.0/(24*60*60), 5)

	// Telegram: 30 messages per second to different chats, keep it polite
	m.AddLimiter(LimiterTelegram, 1, 10)

	return m
}

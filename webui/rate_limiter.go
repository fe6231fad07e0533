package webui

import (
	"context"
	"sync"
	"time"

	"discharge_backend/core"
)

// RateLimiter caps uploads per client address within a fixed window. Every
// upload costs a model call, so a client that exceeds the limit is turned
// away until its window closes.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]core.AttemptRecord
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter allows limit requests per client per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = core.DefaultUploadWindow
	}
	return &RateLimiter{
		attempts: make(map[string]core.AttemptRecord),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow counts a request from client. It returns false and the time until
// the window closes once the client has used up its limit.
func (r *RateLimiter) Allow(client string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record, exists := r.attempts[client]
	if !exists || record.ExpiredAt(now) {
		r.attempts[client] = core.NewAttemptRecordAt(now, r.window)
		return true, 0
	}
	if record.IsBlocked(r.limit) {
		return false, record.RemainingAt(now)
	}
	r.attempts[client] = record.Increment()
	return true, 0
}

// Cleanup removes closed windows and returns how many were removed.
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for client, record := range r.attempts {
		if record.ExpiredAt(now) {
			delete(r.attempts, client)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is canceled.
func (r *RateLimiter) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}

// Count returns the number of tracked clients.
func (r *RateLimiter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

package core

import (
	"time"
)

// DefaultUploadWindow is the window over which uploads per client are counted.
const DefaultUploadWindow = time.Minute

// DefaultUploadsPerWindow is the default number of uploads a client may make
// per window. Each upload costs at least one model call.
const DefaultUploadsPerWindow = 10

// AttemptRecord counts requests from one client within a fixed window.
type AttemptRecord struct {
	// Count is the number of attempts within the current window
	Count int

	// ResetAt is when the attempt count should reset
	ResetAt time.Time
}

// NewAttemptRecordAt starts a window at now with a count of one.
func NewAttemptRecordAt(now time.Time, window time.Duration) AttemptRecord {
	return AttemptRecord{
		Count:   1,
		ResetAt: now.Add(window),
	}
}

// ExpiredAt reports whether the window has closed at t.
func (a AttemptRecord) ExpiredAt(t time.Time) bool {
	return t.After(a.ResetAt)
}

// IsBlocked returns true if the attempt count has reached or exceeded the given limit.
func (a AttemptRecord) IsBlocked(maxAttempts int) bool {
	return a.Count >= maxAttempts
}

// RemainingAt returns the time left in the window at t, never negative.
func (a AttemptRecord) RemainingAt(t time.Time) time.Duration {
	if remaining := a.ResetAt.Sub(t); remaining > 0 {
		return remaining
	}
	return 0
}

// Increment returns a copy with the count raised by one.
func (a AttemptRecord) Increment() AttemptRecord {
	return AttemptRecord{
		Count:   a.Count + 1,
		ResetAt: a.ResetAt,
	}
}

package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"discharge_backend/core"
	"discharge_backend/summary"
)

// ErrRecordNotFound is returned when a review token is unknown.
var ErrRecordNotFound = errors.New("record not found")

// ErrRecordExpired is returned when a review token exists but has expired.
var ErrRecordExpired = errors.New("record expired")

type storedRecord struct {
	session core.Session
	record  *summary.Record
}

// RecordStore holds extracted records between upload and review, keyed by
// an opaque token. Stored records are never modified.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	ttl     time.Duration
	now     func() time.Time
}

// NewRecordStore creates a store whose entries expire after ttl.
func NewRecordStore(ttl time.Duration) *RecordStore {
	if ttl <= 0 {
		ttl = core.DefaultSessionTTL
	}
	return &RecordStore{
		records: make(map[string]storedRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for expiry.
func (s *RecordStore) WithClock(now func() time.Time) *RecordStore {
	s.now = now
	return s
}

// Put stores rec under a new random token and returns the session.
func (s *RecordStore) Put(rec *summary.Record) (core.Session, error) {
	token, err := core.GenerateSessionID()
	if err != nil {
		return core.Session{}, err
	}
	session := core.NewSessionAt(token, s.now(), s.ttl)

	s.mu.Lock()
	s.records[token] = storedRecord{session: session, record: rec}
	s.mu.Unlock()

	return session, nil
}

// Get returns the record for token. An expired entry keeps reporting
// ErrRecordExpired until Cleanup removes it.
func (s *RecordStore) Get(token string) (*summary.Record, error) {
	s.mu.RLock()
	entry, exists := s.records[token]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrRecordNotFound
	}
	if entry.session.ExpiredAt(s.now()) {
		return nil, ErrRecordExpired
	}
	return entry.record, nil
}

// Delete removes token. Deleting an unknown token is a no-op.
func (s *RecordStore) Delete(token string) {
	s.mu.Lock()
	delete(s.records, token)
	s.mu.Unlock()
}

// Cleanup removes expired entries and returns how many were removed.
func (s *RecordStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, entry := range s.records {
		if entry.session.ExpiredAt(now) {
			delete(s.records, token)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is cancelled.
// onCleanup, if not nil, is called after each sweep with the number of
// entries left.
func (s *RecordStore) StartCleanupTicker(ctx context.Context, interval time.Duration, onCleanup func(remaining int)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
				if onCleanup != nil {
					onCleanup(s.Count())
				}
			}
		}
	}()
}

// Count returns the number of stored entries, expired or not.
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

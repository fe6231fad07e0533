package metrics

import (
	"sync"
	"time"
)

// degradedWindow is how many of the most recent records are checked when
// deciding whether the service is degraded.
const degradedWindow = 5

// Store keeps a bounded history of stage records and running aggregates.
// It is safe for concurrent use.
//
// Usage:
//
//	store := NewStore(DefaultStoreConfig(), time.Now())
//	store.Record(rec)
//	status := store.SystemStatus()
type Store struct {
	mu sync.RWMutex

	// Ring buffer of recent records
	history  []StageRecord
	capacity int
	head     int
	size     int

	totalRecords int64
	totalSuccess int64
	totalErrors  int64
	byStage      map[string]*stageStats

	activeRecords int

	startTime time.Time
	version   string
}

type stageStats struct {
	count         int64
	successCount  int64
	totalDuration time.Duration
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// HistoryCapacity is the max number of records to retain
	HistoryCapacity int
	// Version is the application version string
	Version string
}

// DefaultStoreConfig returns a default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		HistoryCapacity: 100,
		Version:         "dev",
	}
}

// NewStore creates a Store. startTime is used for uptime.
func NewStore(config StoreConfig, startTime time.Time) *Store {
	capacity := config.HistoryCapacity
	if capacity < 1 {
		capacity = 100
	}
	return &Store{
		history:   make([]StageRecord, capacity),
		capacity:  capacity,
		byStage:   make(map[string]*stageStats),
		startTime: startTime,
		version:   config.Version,
	}
}

// Record adds rec to the history and aggregates.
func (s *Store) Record(rec StageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[s.head] = rec
	s.head = (s.head + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}

	s.totalRecords++
	switch rec.Status {
	case StatusSuccess:
		s.totalSuccess++
	case StatusError:
		s.totalErrors++
	}

	stats, ok := s.byStage[rec.Stage]
	if !ok {
		stats = &stageStats{}
		s.byStage[rec.Stage] = stats
	}
	stats.count++
	if rec.Status == StatusSuccess {
		stats.successCount++
	}
	stats.totalDuration += rec.Duration
}

// SetActiveRecords stores the number of records awaiting review.
func (s *Store) SetActiveRecords(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeRecords = n
}

// Metrics returns the aggregates.
func (s *Store) Metrics() PipelineMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := PipelineMetrics{
		TotalProcessed: s.totalRecords,
		TotalSuccess:   s.totalSuccess,
		TotalErrors:    s.totalErrors,
		ByStage:        make(map[string]*StageMetrics, len(s.byStage)),
	}
	for stage, stats := range s.byStage {
		sm := &StageMetrics{Count: stats.count}
		if stats.count > 0 {
			sm.SuccessRate = float64(stats.successCount) / float64(stats.count) * 100
			sm.AvgDuration = stats.totalDuration / time.Duration(stats.count)
		}
		m.ByStage[stage] = sm
	}
	return m
}

// Recent returns up to limit records, oldest first.
func (s *Store) Recent(limit int) []StageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentLocked(limit)
}

func (s *Store) recentLocked(limit int) []StageRecord {
	if limit <= 0 || s.size == 0 {
		return []StageRecord{}
	}
	if limit > s.size {
		limit = s.size
	}

	result := make([]StageRecord, limit)
	for i := 0; i < limit; i++ {
		idx := (s.head - limit + i + s.capacity) % s.capacity
		result[i] = s.history[idx]
	}
	return result
}

// SystemStatus reports "degraded" when every one of the last few records
// failed, and "running" otherwise.
func (s *Store) SystemStatus() SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	health := SystemHealthRunning
	if recent := s.recentLocked(degradedWindow); len(recent) == degradedWindow {
		failed := 0
		for _, rec := range recent {
			if rec.Status == StatusError {
				failed++
			}
		}
		if failed == degradedWindow {
			health = SystemHealthDegraded
		}
	}

	return SystemStatus{
		Health:        health,
		Version:       s.version,
		Uptime:        time.Since(s.startTime),
		LastCheck:     time.Now(),
		ActiveRecords: s.activeRecords,
	}
}

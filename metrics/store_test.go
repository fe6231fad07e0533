package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewStore(t *testing.T) {
	store := NewStore(StoreConfig{HistoryCapacity: 0, Version: "1.2.3"}, time.Now())
	if store.capacity != 100 {
		t.Errorf("capacity = %d, want default 100", store.capacity)
	}
	if got := store.SystemStatus().Version; got != "1.2.3" {
		t.Errorf("Version = %q", got)
	}
}

func TestStore_RecordAndMetrics(t *testing.T) {
	store := NewStore(DefaultStoreConfig(), time.Now())

	store.Record(StageRecord{Stage: StageExtract, Status: StatusSuccess, Duration: 2 * time.Second})
	store.Record(StageRecord{Stage: StageExtract, Status: StatusError, Duration: 4 * time.Second})
	store.Record(StageRecord{Stage: StageRender, Status: StatusSuccess, Duration: time.Second})

	m := store.Metrics()
	if m.TotalProcessed != 3 || m.TotalSuccess != 2 || m.TotalErrors != 1 {
		t.Errorf("totals = %+v", m)
	}

	extract := m.ByStage[StageExtract]
	if extract == nil {
		t.Fatal("no extract stage metrics")
	}
	if extract.Count != 2 {
		t.Errorf("Count = %d, want 2", extract.Count)
	}
	if extract.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", extract.SuccessRate)
	}
	if extract.AvgDuration != 3*time.Second {
		t.Errorf("AvgDuration = %v, want 3s", extract.AvgDuration)
	}
}

func TestStore_RecentWraps(t *testing.T) {
	store := NewStore(StoreConfig{HistoryCapacity: 3}, time.Now())
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		store.Record(StageRecord{Stage: StageExtract, Status: StatusSuccess, CorrelationID: id})
	}

	recent := store.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("len(Recent) = %d, want 3", len(recent))
	}
	for i, want := range []string{"c", "d", "e"} {
		if recent[i].CorrelationID != want {
			t.Errorf("recent[%d] = %q, want %q", i, recent[i].CorrelationID, want)
		}
	}

	if got := store.Recent(0); len(got) != 0 {
		t.Errorf("Recent(0) = %v", got)
	}
}

func TestStore_SystemStatus(t *testing.T) {
	store := NewStore(DefaultStoreConfig(), time.Now().Add(-time.Minute))

	status := store.SystemStatus()
	if status.Health != SystemHealthRunning {
		t.Errorf("Health = %q, want running", status.Health)
	}
	if status.Uptime < time.Minute {
		t.Errorf("Uptime = %v, want >= 1m", status.Uptime)
	}

	for i := 0; i < degradedWindow; i++ {
		store.Record(StageRecord{Stage: StageExtract, Status: StatusError})
	}
	if got := store.SystemStatus().Health; got != SystemHealthDegraded {
		t.Errorf("Health = %q, want degraded", got)
	}

	store.Record(StageRecord{Stage: StageExtract, Status: StatusSuccess})
	if got := store.SystemStatus().Health; got != SystemHealthRunning {
		t.Errorf("Health = %q, want running after a success", got)
	}

	store.SetActiveRecords(4)
	if got := store.SystemStatus().ActiveRecords; got != 4 {
		t.Errorf("ActiveRecords = %d, want 4", got)
	}
}

func TestStore_Concurrent(t *testing.T) {
	store := NewStore(StoreConfig{HistoryCapacity: 10}, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Record(StageRecord{Stage: StageReview, Status: StatusSuccess})
				store.Recent(5)
				store.SystemStatus()
			}
		}()
	}
	wg.Wait()

	if got := store.Metrics().TotalProcessed; got != 1000 {
		t.Errorf("TotalProcessed = %d, want 1000", got)
	}
}

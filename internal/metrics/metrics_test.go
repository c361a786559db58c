package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRecord(t *testing.T) {
	tracker := NewTracker()
	price := Pricing{Input: 1, Output: 2}

	tracker.Record("deepseek-chat", 1000, 500, price)
	tracker.Record("deepseek-chat", 1000, 500, price)
	tracker.Record("qwen-plus", 100, 100, Pricing{Input: 4, Output: 12})

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap["deepseek-chat"].Requests)
	assert.Equal(t, 2000, snap["deepseek-chat"].InputTokens)
	assert.Equal(t, 1000, snap["deepseek-chat"].OutputTokens)
	assert.InDelta(t, 0.004, snap["deepseek-chat"].Cost, 1e-9)
	assert.InDelta(t, 0.0016, snap["qwen-plus"].Cost, 1e-9)
	assert.InDelta(t, 0.0056, tracker.TotalCost(), 1e-9)
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tracker := NewTracker()
	tracker.Record("m", 10, 10, Pricing{})

	snap := tracker.Snapshot()
	entry := snap["m"]
	entry.Requests = 99
	snap["m"] = entry

	assert.Equal(t, 1, tracker.Snapshot()["m"].Requests)
}

func TestTrackerConcurrentRecords(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record("m", 1, 1, Pricing{Input: 1, Output: 1})
		}()
	}
	wg.Wait()

	snap := tracker.Snapshot()
	assert.Equal(t, 50, snap["m"].Requests)
	assert.Equal(t, 50, snap["m"].InputTokens)
}

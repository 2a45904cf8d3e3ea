package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpRecall, 2*time.Millisecond, nil)
	c.RecordTiming(OpRecall, 4*time.Millisecond, errors.New("boom"))
	c.RecordTiming(OpStore, time.Millisecond, nil)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, OpRecall, snap.Operations[0].Name)
	assert.Equal(t, OpStore, snap.Operations[1].Name)

	recall := snap.Operation(OpRecall)
	require.NotNil(t, recall)
	assert.Equal(t, int64(2), recall.Count)
	assert.Equal(t, int64(1), recall.Errors)
	assert.Equal(t, int64(6000), recall.TotalTimeUs)
	assert.Equal(t, 3000.0, recall.AvgTimeUs)
	assert.Equal(t, int64(2000), recall.MinTimeUs)
	assert.Equal(t, int64(4000), recall.MaxTimeUs)

	assert.Nil(t, snap.Operation(OpBloom))
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()
	c.Add(CounterEvictions, 1)
	c.Add(CounterEvictions, 2)
	c.Add(CounterScans, 10)

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap.Counters[CounterEvictions])
	assert.Equal(t, int64(10), snap.Counters[CounterScans])

	// Snapshot is a copy.
	snap.Counters[CounterEvictions] = 99
	assert.Equal(t, int64(3), c.Snapshot().Counters[CounterEvictions])
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.RecordTiming(OpBloom, time.Microsecond, nil)
				c.Add(CounterScans, 1)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(1000), snap.Operation(OpBloom).Count)
	assert.Equal(t, int64(1000), snap.Counters[CounterScans])
}

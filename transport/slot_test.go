package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotPutTake(t *testing.T) {
	slot := newReplySlot()

	slot.put("103.5 1\r\n")
	body, ok := slot.take(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "103.5 1\r\n", body)

	// Consumed; next take times out.
	_, ok = slot.take(10 * time.Millisecond)
	assert.False(t, ok)
}

func TestSlotLastWriteWins(t *testing.T) {
	slot := newReplySlot()

	_, overwritten := slot.put("stale")
	assert.False(t, overwritten)

	discarded, overwritten := slot.put("fresh")
	assert.True(t, overwritten)
	assert.Equal(t, "stale", discarded)

	body, ok := slot.take(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "fresh", body)
}

func TestSlotTakeWaitsForPut(t *testing.T) {
	slot := newReplySlot()

	go func() {
		time.Sleep(20 * time.Millisecond)
		slot.put("late reply")
	}()

	start := time.Now()
	body, ok := slot.take(500 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "late reply", body)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestSlotTakeTimeout(t *testing.T) {
	slot := newReplySlot()

	start := time.Now()
	_, ok := slot.take(30 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestSlotReset(t *testing.T) {
	slot := newReplySlot()

	slot.put("leftover")
	slot.reset()

	_, ok := slot.take(10 * time.Millisecond)
	assert.False(t, ok)
}

package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCancelOnReschedule(t *testing.T) {
	d := NewDebouncer()
	defer d.Stop()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.Schedule("save", 20*time.Millisecond, func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	// Rescheduling replaces the pending timer; only the last one fires.
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerIndependentKeys(t *testing.T) {
	d := NewDebouncer()
	defer d.Stop()

	var local, remote atomic.Int32
	d.Schedule("local", 10*time.Millisecond, func() { local.Add(1) })
	d.Schedule("remote", 10*time.Millisecond, func() { remote.Add(1) })
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, int32(1), local.Load())
	assert.Equal(t, int32(1), remote.Load())
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer()
	defer d.Stop()

	var fired atomic.Int32
	d.Schedule("save", 10*time.Millisecond, func() { fired.Add(1) })
	d.Cancel("save")
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(0), fired.Load())
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	d := NewDebouncer()
	defer d.Stop()

	var fired atomic.Int32
	d.Schedule("save", time.Hour, func() { fired.Add(1) })
	d.Flush()

	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerStopPreventsLateFires(t *testing.T) {
	d := NewDebouncer()

	var fired atomic.Int32
	d.Schedule("save", 10*time.Millisecond, func() { fired.Add(1) })
	d.Stop()
	d.Schedule("save", time.Millisecond, func() { fired.Add(1) })
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, int32(0), fired.Load())
}

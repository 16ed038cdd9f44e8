package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerAtMostOnePendingTurn(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	var runs atomic.Int32
	s := newBotScheduler(clock, time.Second, func(string) { runs.Add(1) }, testLogger())

	assert.True(t, s.Schedule("g1"))
	assert.False(t, s.Schedule("g1"), "second schedule is a no-op")
	assert.True(t, s.Schedule("g2"), "games are independent")
	assert.True(t, s.Pending("g1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(time.Second).MustWait(ctx)

	assert.Equal(t, int32(2), runs.Load())
	assert.False(t, s.Pending("g1"))
	assert.False(t, s.Pending("g2"))
}

func TestSchedulerCancel(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	var runs atomic.Int32
	s := newBotScheduler(clock, time.Second, func(string) { runs.Add(1) }, testLogger())

	require.True(t, s.Schedule("g1"))
	s.Cancel("g1")
	assert.False(t, s.Pending("g1"))
	s.Cancel("g1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(time.Second).MustWait(ctx)
	assert.Zero(t, runs.Load(), "cancelled turn never runs")

	assert.True(t, s.Schedule("g1"))
	s.Stop()
	assert.False(t, s.Pending("g1"))
	assert.False(t, s.Schedule("g1"), "stopped scheduler refuses work")
}

func TestSchedulerTurnCanScheduleTheNext(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	var s *botScheduler
	var runs atomic.Int32
	s = newBotScheduler(clock, time.Second, func(id string) {
		if runs.Add(1) < 3 {
			s.Schedule(id)
		}
	}, testLogger())

	require.True(t, s.Schedule("g1"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for s.Pending("g1") {
		_, w := clock.AdvanceNext()
		w.MustWait(ctx)
	}
	assert.Equal(t, int32(3), runs.Load())
}

func TestSchedulerRetryBacksOff(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	var s *botScheduler
	var runs atomic.Int32
	s = newBotScheduler(clock, time.Second, func(id string) {
		if runs.Add(1) < 3 {
			s.Retry(id)
		}
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.True(t, s.Schedule("g1"))
	clock.Advance(time.Second).MustWait(ctx)
	require.Equal(t, int32(1), runs.Load())

	// first retry waits the normal delay
	clock.Advance(time.Second).MustWait(ctx)
	require.Equal(t, int32(2), runs.Load())

	// second retry waits twice as long
	clock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, int32(2), runs.Load())
	clock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, int32(3), runs.Load())
	assert.False(t, s.Pending("g1"))

	s.Succeeded("g1")
	require.True(t, s.Schedule("g1"))
	s.Cancel("g1")
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base     time.Duration
		failures int
		expected time.Duration
	}{
		{time.Second, 1, time.Second},
		{time.Second, 2, 2 * time.Second},
		{time.Second, 4, 8 * time.Second},
		{time.Second, 20, maxRetryDelay},
		{0, 1, minRetryDelay},
		{0, 3, 4 * minRetryDelay},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, retryDelay(tc.base, tc.failures), "%s x%d", tc.base, tc.failures)
	}
}

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder got the lock")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired
	unlockB()
	assert.Eventually(t, func() bool { return k.size() == 0 }, time.Second, time.Millisecond)
}

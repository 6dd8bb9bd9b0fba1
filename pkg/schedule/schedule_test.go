package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchHonoursInterval(t *testing.T) {
	s := New()
	var runs atomic.Int32
	s.Every("count", time.Minute, func(context.Context) { runs.Add(1) })

	ctx := context.Background()
	start := time.Now()
	s.dispatchDue(ctx, start)
	s.dispatchDue(ctx, start.Add(30*time.Second))
	s.dispatchDue(ctx, start.Add(61*time.Second))
	s.wg.Wait()

	assert.Equal(t, int32(2), runs.Load())
}

func TestWithoutOverlappingSkipsBusyTask(t *testing.T) {
	s := New()
	release := make(chan struct{})
	var runs atomic.Int32
	s.Every("slow", time.Nanosecond, func(context.Context) {
		runs.Add(1)
		<-release
	}).WithoutOverlapping()

	ctx := context.Background()
	now := time.Now()
	s.dispatchDue(ctx, now)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	s.dispatchDue(ctx, now.Add(time.Second))

	close(release)
	s.wg.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestPanickingTaskIsRecovered(t *testing.T) {
	s := New()
	s.Every("boom", time.Minute, func(context.Context) { panic("boom") })

	assert.NotPanics(t, func() {
		s.dispatchDue(context.Background(), time.Now())
		s.wg.Wait()
	})
}

func TestRunStopsWithContext(t *testing.T) {
	s := New()
	s.tick = time.Millisecond
	var runs atomic.Int32
	s.Every("tick", time.Millisecond, func(context.Context) { runs.Add(1) })
	s.Every("later", time.Hour, func(context.Context) { t.Error("delayed task ran") }).Delayed()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Len(t, s.List(), 2)
}

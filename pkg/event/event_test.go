package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFireCallsListenersInOrder(t *testing.T) {
	b := New()
	var got []string
	b.Listen("order.placed", func(_ context.Context, _ string, p interface{}) { got = append(got, "a:"+p.(string)) })
	b.Listen("order.placed", func(_ context.Context, _ string, p interface{}) { got = append(got, "b:"+p.(string)) })
	b.Listen("order.paid", func(context.Context, string, interface{}) { got = append(got, "wrong") })

	b.Fire(context.Background(), "order.placed", "65a1")
	assert.Equal(t, []string{"a:65a1", "b:65a1"}, got)
}

func TestPanickingListenerDoesNotStopOthers(t *testing.T) {
	b := New()
	called := false
	b.Listen("x", func(context.Context, string, interface{}) { panic("boom") })
	b.Listen("x", func(context.Context, string, interface{}) { called = true })

	assert.NotPanics(t, func() { b.Fire(context.Background(), "x", nil) })
	assert.True(t, called)
}

func TestFireAsyncOutlivesCancelledContext(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	b.Listen("x", func(ctx context.Context, _ string, _ interface{}) {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		ctxErr = ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.FireAsync(ctx, "x", nil)
	cancel()
	wg.Wait()
	assert.NoError(t, ctxErr)
}

func TestNilBusDropsEvents(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() { b.Fire(context.Background(), "x", nil) })
}

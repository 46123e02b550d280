package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return l
}

func TestCallRunsInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestAfterFuncRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	timer := l.AfterFunc(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer callback did not run")
	}
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.True(t, timer.Fired())
	assert.False(t, timer.Stop(), "stopping a fired timer reports false")
}

func TestStoppedTimerNeverRuns(t *testing.T) {
	l := startLoop(t)

	ran := false
	stopped := false
	require.NoError(t, l.Call(context.Background(), func() {
		timer := l.AfterFunc(time.Millisecond, func() { ran = true })
		// Hold the loop past the deadline so the callback queues behind us.
		time.Sleep(10 * time.Millisecond)
		stopped = timer.Stop()
	}))
	require.NoError(t, l.Call(context.Background(), func() {}))

	assert.True(t, stopped)
	assert.False(t, ran)
}

func TestPostAfterStop(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}

func TestRunTwice(t *testing.T) {
	l := startLoop(t)
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.Error(t, l.Run(context.Background()))
}

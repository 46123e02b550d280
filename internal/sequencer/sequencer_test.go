package sequencer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yildizm/snapzoo/internal/eventloop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	loop := eventloop.New(16)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return loop
}

func waitTask(t *testing.T, task *Task) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, task.Wait(ctx))
}

func TestRevealInOrder(t *testing.T) {
	loop := runLoop(t)
	seq := New(loop, time.Millisecond, 3)

	var revealed []string
	doneCalls := 0
	var task *Task
	require.NoError(t, loop.Call(context.Background(), func() {
		task = seq.Reveal("A. B! C?",
			func(chunk string) { revealed = append(revealed, chunk) },
			func() {
				doneCalls++
				// onDone fires after the last chunk
				assert.Len(t, revealed, 3)
			})
	}))

	waitTask(t, task)
	require.NoError(t, loop.Call(context.Background(), func() {}))

	assert.Equal(t, []string{"A.", "B!", "C?"}, revealed)
	assert.Equal(t, 1, doneCalls)
	assert.False(t, task.Cancelled())
}

func TestRevealEmptyCallsDoneImmediately(t *testing.T) {
	loop := runLoop(t)
	seq := New(loop, time.Hour, 0)

	for _, narrative := range []string{"", "   \n "} {
		emitted := 0
		doneCalls := 0
		var task *Task
		require.NoError(t, loop.Call(context.Background(), func() {
			task = seq.Reveal(narrative, func(string) { emitted++ }, func() { doneCalls++ })
			assert.Equal(t, 1, doneCalls, "onDone should fire before Reveal returns")
		}))

		select {
		case <-task.Done():
		default:
			t.Fatal("task should already be done")
		}
		assert.Zero(t, emitted)
		assert.Equal(t, 1, doneCalls)
		assert.False(t, task.Cancel())
	}
}

func TestCancelStopsReveal(t *testing.T) {
	loop := runLoop(t)
	seq := New(loop, 20*time.Millisecond, 3)

	var mu sync.Mutex
	var revealed []string
	doneCalls := 0

	var task *Task
	require.NoError(t, loop.Call(context.Background(), func() {
		task = seq.Reveal("A. B! C?",
			func(chunk string) {
				mu.Lock()
				revealed = append(revealed, chunk)
				mu.Unlock()
			},
			func() { doneCalls++ })
	}))

	// Wait for the first chunk, then cancel from the loop.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(revealed) >= 1
	}, time.Second, time.Millisecond)

	var cancelled bool
	require.NoError(t, loop.Call(context.Background(), func() { cancelled = task.Cancel() }))
	waitTask(t, task)

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, loop.Call(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	if cancelled {
		assert.Less(t, len(revealed), 3)
		assert.Zero(t, doneCalls)
		assert.True(t, task.Cancelled())
	} else {
		// The reveal raced to completion before Cancel ran.
		assert.Len(t, revealed, 3)
		assert.Equal(t, 1, doneCalls)
	}
	assert.False(t, task.Cancel(), "second cancel is a no-op")
}

func TestTaskChunks(t *testing.T) {
	loop := runLoop(t)
	seq := New(loop, time.Millisecond, 25)

	var task *Task
	require.NoError(t, loop.Call(context.Background(), func() {
		task = seq.Reveal("Foxes are clever. They live in dens. They eat small mammals.", nil, nil)
	}))
	waitTask(t, task)

	assert.Equal(t, []string{"Foxes are clever.", "They live in dens.", "They eat small mammals."}, task.Chunks())
}

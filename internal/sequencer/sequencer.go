// Package sequencer reveals long result text as a paced series of messages.
package sequencer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yildizm/snapzoo/internal/eventloop"
)

// DefaultInterval is the pause before each revealed chunk
const DefaultInterval = time.Second

// Scheduler runs callbacks after a delay on the owning loop
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) *eventloop.Timer
}

// Sequencer paces chunks of a narrative
type Sequencer struct {
	sched    Scheduler
	interval time.Duration
	maxLen   int
}

// New creates a sequencer. A negative interval or non-positive maxLen falls
// back to the defaults.
func New(sched Scheduler, interval time.Duration, maxLen int) *Sequencer {
	if interval < 0 {
		interval = DefaultInterval
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	return &Sequencer{sched: sched, interval: interval, maxLen: maxLen}
}

// Reveal splits narrative and emits one chunk per interval, then calls
// onDone once. It must be called from the scheduler's loop. An empty
// narrative calls onDone before Reveal returns.
func (s *Sequencer) Reveal(narrative string, emit func(chunk string), onDone func()) *Task {
	t := &Task{
		sched:    s.sched,
		interval: s.interval,
		chunks:   Chunk(narrative, s.maxLen),
		emit:     emit,
		onDone:   onDone,
		done:     make(chan struct{}),
	}

	if len(t.chunks) == 0 {
		t.finish()
		return t
	}
	t.schedule()
	return t
}

// Task is one running reveal
type Task struct {
	sched    Scheduler
	interval time.Duration
	chunks   []string
	emit     func(string)
	onDone   func()

	timer     *eventloop.Timer
	next      int
	finished  atomic.Bool
	cancelled atomic.Bool
	done      chan struct{}
}

func (t *Task) schedule() {
	t.timer = t.sched.AfterFunc(t.interval, t.step)
}

func (t *Task) step() {
	if t.cancelled.Load() || t.finished.Load() {
		return
	}

	chunk := t.chunks[t.next]
	t.next++
	if t.emit != nil {
		t.emit(chunk)
	}

	if t.next == len(t.chunks) {
		t.finish()
		return
	}
	t.schedule()
}

func (t *Task) finish() {
	t.finished.Store(true)
	close(t.done)
	if t.onDone != nil {
		t.onDone()
	}
}

// Cancel stops the reveal before its next chunk. onDone is not called for a
// cancelled task. It reports whether the task was still running.
func (t *Task) Cancel() bool {
	if t == nil || t.finished.Load() || !t.cancelled.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	close(t.done)
	return true
}

// Done is closed when the task finishes or is cancelled
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task ends or ctx expires
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancelled reports whether Cancel stopped the task
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Chunks returns the planned chunks
func (t *Task) Chunks() []string {
	out := make([]string, len(t.chunks))
	copy(out, t.chunks)
	return out
}

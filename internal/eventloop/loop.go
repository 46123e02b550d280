// Package eventloop runs callbacks one at a time on a single goroutine.
//
// Every mutation of chat state happens inside a callback executed by Loop,
// so handlers run to completion without interleaving. Blocking work (network
// calls) happens elsewhere and reports back through Post.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned when work is submitted to a loop that has exited
var ErrStopped = errors.New("event loop stopped")

// Loop is a serial executor
type Loop struct {
	queue   chan func()
	stopped chan struct{}
	once    sync.Once
	running atomic.Bool
}

// New creates a loop with the given queue capacity
func New(capacity int) *Loop {
	if capacity < 1 {
		capacity = 64
	}
	return &Loop{
		queue:   make(chan func(), capacity),
		stopped: make(chan struct{}),
	}
}

// Run executes queued callbacks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("event loop already running")
	}
	defer l.once.Do(func() { close(l.stopped) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stopped is closed once Run returns
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

// Post queues fn for execution. It reports false if the loop has exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.stopped:
		return false
	}
}

// Call queues fn and waits until it has run
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Timer is a pending callback scheduled with AfterFunc
type Timer struct {
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

// AfterFunc runs fn on the loop once d has elapsed. Stopping the timer from
// inside the loop guarantees fn will not run, even if the deadline already
// passed and the callback is queued.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			t.fired.Store(true)
			fn()
		})
	})
	return t
}

// Stop prevents the callback from running. It reports whether the call
// stopped a callback that had not run yet.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.timer.Stop()
	if t.fired.Load() {
		return false
	}
	return !t.stopped.Swap(true)
}

// Fired reports whether the callback has run
func (t *Timer) Fired() bool {
	return t != nil && t.fired.Load()
}

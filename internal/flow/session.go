package flow

import (
	"context"
	"sync"

	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/eventloop"
	"github.com/yildizm/snapzoo/internal/logger"
)

var _ capture.DropTarget = (*Session)(nil)

// Session exposes a controller to other goroutines. Every call is handed to
// the event loop, so callers never touch controller state directly.
type Session struct {
	loop *eventloop.Loop
	ctrl *Controller
	log  *logger.Logger

	mu   sync.Mutex
	subs map[int]chan Snapshot
	next int
}

// NewSession wraps ctrl, which must be driven by loop
func NewSession(loop *eventloop.Loop, ctrl *Controller) *Session {
	s := &Session{
		loop: loop,
		ctrl: ctrl,
		log:  logger.New("session"),
		subs: make(map[int]chan Snapshot),
	}
	ctrl.OnChange(s.broadcast)
	return s
}

// Start opens the first cycle
func (s *Session) Start(ctx context.Context) error {
	return s.loop.Call(ctx, s.ctrl.Start)
}

// Choose selects a file for the active cycle
func (s *Session) Choose(ctx context.Context, path string) error {
	var err error
	if callErr := s.loop.Call(ctx, func() { err = s.ctrl.Choose(path) }); callErr != nil {
		return callErr
	}
	return err
}

// DropFiles delivers a drop and reports a selection failure
func (s *Session) DropFiles(ctx context.Context, paths []string) error {
	var err error
	if callErr := s.loop.Call(ctx, func() { err = s.ctrl.Drop(paths) }); callErr != nil {
		return callErr
	}
	return err
}

// Drop implements capture.DropTarget
func (s *Session) Drop(paths []string) {
	s.post(func() {
		if err := s.ctrl.Drop(paths); err != nil {
			s.log.Debug("drop rejected", logger.Error(err))
		}
	})
}

// DragEnter implements capture.DropTarget
func (s *Session) DragEnter() {
	s.post(s.ctrl.DragEnter)
}

// DragLeave implements capture.DropTarget
func (s *Session) DragLeave() {
	s.post(s.ctrl.DragLeave)
}

// Analyze submits the pending file
func (s *Session) Analyze(ctx context.Context) error {
	var err error
	if callErr := s.loop.Call(ctx, func() { err = s.ctrl.Analyze() }); callErr != nil {
		return callErr
	}
	return err
}

// Activate activates the entry with the given id
func (s *Session) Activate(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.loop.Call(ctx, func() { ok = s.ctrl.Activate(id) })
	return ok, err
}

// ActivateLiveAction starts the next cycle if an action is waiting
func (s *Session) ActivateLiveAction(ctx context.Context) (bool, error) {
	var ok bool
	err := s.loop.Call(ctx, func() { ok = s.ctrl.ActivateLiveAction() })
	return ok, err
}

// Snapshot returns the controller state
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.loop.Call(ctx, func() { snap = s.ctrl.Snapshot() })
	return snap, err
}

// Records returns the finished cycles
func (s *Session) Records(ctx context.Context) ([]CycleRecord, error) {
	var records []CycleRecord
	err := s.loop.Call(ctx, func() { records = s.ctrl.Records() })
	return records, err
}

// Entries returns a copy of the conversation
func (s *Session) Entries() []conversation.Entry {
	return s.ctrl.Log().Entries()
}

// Subscribe returns a channel carrying the latest snapshot after each
// change. Slow readers only see the newest snapshot.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// WaitFor blocks until a snapshot satisfies cond
func (s *Session) WaitFor(ctx context.Context, cond func(Snapshot) bool) (Snapshot, error) {
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return snap, err
	}
	for !cond(snap) {
		select {
		case snap = <-updates:
		case <-s.loop.Stopped():
			return snap, eventloop.ErrStopped
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
	return snap, nil
}

// Close abandons outstanding requests
func (s *Session) Close() {
	s.ctrl.Close()
}

func (s *Session) post(fn func()) {
	if !s.loop.Post(fn) {
		s.log.Debug("event dropped, loop stopped")
	}
}

// broadcast runs on the loop, which is the only sender
func (s *Session) broadcast(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

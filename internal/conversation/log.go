// Package conversation holds the append-only chat history.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no entry has the given id
	ErrNotFound = errors.New("log entry not found")

	// ErrNotRemovable is returned when removing anything but a loading entry
	ErrNotRemovable = errors.New("only loading entries can be removed")
)

// DefaultTimestampFormat is the time-of-day label layout
const DefaultTimestampFormat = "15:04"

// Log is the ordered conversation history.
//
// Entries are never reordered. Removal is permitted only for loading
// indicators. Observers are invoked synchronously on the mutating goroutine.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int

	layout string
	now    func() time.Time

	onChange []func(Event)
	onAction func(Entry)
}

// Option configures a Log
type Option func(*Log)

// WithTimestampFormat sets the label layout
func WithTimestampFormat(layout string) Option {
	return func(l *Log) {
		if layout != "" {
			l.layout = layout
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// NewLog creates an empty log
func NewLog(opts ...Option) *Log {
	l := &Log{
		index:  make(map[string]int),
		layout: DefaultTimestampFormat,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnChange registers an observer for appends, removals and scroll requests
func (l *Log) OnChange(fn func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// OnAction registers the handler invoked when an action entry is activated
func (l *Log) OnAction(fn func(Entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAction = fn
}

// Append adds an entry at the end and requests a scroll to it
func (l *Log) Append(kind Kind, content Content, cycle int) Entry {
	ts := l.now()
	entry := Entry{
		ID:             kind.String() + "-" + uuid.NewString(),
		Kind:           kind,
		Content:        content,
		Cycle:          cycle,
		Timestamp:      ts,
		TimestampLabel: ts.Format(l.layout),
	}

	l.mu.Lock()
	l.index[entry.ID] = len(l.entries)
	l.entries = append(l.entries, entry)
	observers := l.observers()
	l.mu.Unlock()

	notify(observers, Event{Type: EventAppended, Entry: entry})
	notify(observers, Event{Type: EventScroll, Entry: entry})
	return entry
}

// Remove deletes a loading entry by id
func (l *Log) Remove(id string) error {
	l.mu.Lock()
	pos, ok := l.index[id]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	entry := l.entries[pos]
	if entry.Kind != KindLoading {
		l.mu.Unlock()
		return ErrNotRemovable
	}
	l.removeAt(pos)
	observers := l.observers()
	l.mu.Unlock()

	notify(observers, Event{Type: EventRemoved, Entry: entry})
	return nil
}

// RemoveLoading deletes every loading entry and returns how many were removed
func (l *Log) RemoveLoading() int {
	l.mu.Lock()
	var removed []Entry
	for pos := len(l.entries) - 1; pos >= 0; pos-- {
		if l.entries[pos].Kind == KindLoading {
			removed = append(removed, l.entries[pos])
			l.removeAt(pos)
		}
	}
	observers := l.observers()
	l.mu.Unlock()

	for _, entry := range removed {
		notify(observers, Event{Type: EventRemoved, Entry: entry})
	}
	return len(removed)
}

// removeAt deletes the entry at pos; callers hold the write lock
func (l *Log) removeAt(pos int) {
	delete(l.index, l.entries[pos].ID)
	l.entries = append(l.entries[:pos], l.entries[pos+1:]...)
	for i := pos; i < len(l.entries); i++ {
		l.index[l.entries[i].ID] = i
	}
}

// ScrollToNewest asks observers to bring the last entry into view
func (l *Log) ScrollToNewest() {
	l.mu.RLock()
	observers := l.observers()
	var last Entry
	if n := len(l.entries); n > 0 {
		last = l.entries[n-1]
	}
	l.mu.RUnlock()

	notify(observers, Event{Type: EventScroll, Entry: last})
}

// Activate triggers the action hook for an action entry. It reports whether
// the entry exists and is an action.
func (l *Log) Activate(id string) bool {
	l.mu.RLock()
	pos, ok := l.index[id]
	var entry Entry
	if ok {
		entry = l.entries[pos]
	}
	hook := l.onAction
	l.mu.RUnlock()

	if !ok || entry.Kind != KindAction {
		return false
	}
	if hook != nil {
		hook(entry)
	}
	return true
}

// Get returns the entry with the given id
func (l *Log) Get(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.index[id]
	if !ok {
		return Entry{}, false
	}
	return l.entries[pos], true
}

// Entries returns a copy of the history
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Count returns how many entries of kind are present
func (l *Log) Count(kind Kind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for i := range l.entries {
		if l.entries[i].Kind == kind {
			n++
		}
	}
	return n
}

func (l *Log) observers() []func(Event) {
	out := make([]func(Event), len(l.onChange))
	copy(out, l.onChange)
	return out
}

func notify(observers []func(Event), ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}

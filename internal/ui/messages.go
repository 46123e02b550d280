package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/flow"
)

// snapshotMsg carries the controller state after a change
type snapshotMsg struct {
	snap flow.Snapshot
}

// resultMsg reports the outcome of a session call
type resultMsg struct {
	op  string
	err error
}

// waitForSnapshot blocks on the subscription until the next change
func waitForSnapshot(ctx context.Context, updates <-chan flow.Snapshot) tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-updates:
			return snapshotMsg{snap: snap}
		case <-ctx.Done():
			return nil
		}
	}
}

// fetchSnapshot reads the current state once
func fetchSnapshot(ctx context.Context, s Session) tea.Cmd {
	return func() tea.Msg {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return resultMsg{op: "snapshot", err: err}
		}
		return snapshotMsg{snap: snap}
	}
}

// sessionCall runs fn off the UI goroutine, since session calls wait on the event loop
func sessionCall(ctx context.Context, op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{op: op, err: fn(ctx)}
	}
}

// worthShowing filters errors the conversation already explains
func worthShowing(err error) bool {
	if err == nil {
		return false
	}
	var selErr *flow.SelectionError
	var decodeErr *capture.DecodeError
	if errors.As(err, &selErr) || errors.As(err, &decodeErr) || errors.Is(err, flow.ErrAnalysisInFlight) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

package ui

import (
	"context"

	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/flow"
)

// Session is the part of flow.Session the chat window drives
type Session interface {
	Choose(ctx context.Context, path string) error
	DropFiles(ctx context.Context, paths []string) error
	Analyze(ctx context.Context) error
	ActivateLiveAction(ctx context.Context) (bool, error)
	Snapshot(ctx context.Context) (flow.Snapshot, error)
	Entries() []conversation.Entry
	Subscribe() (<-chan flow.Snapshot, func())
}

var _ Session = (*flow.Session)(nil)

// Options configures the chat window
type Options struct {
	Theme Theme
	Color bool

	// DropDir is shown as a hint when a drop folder is watched
	DropDir string

	// ImageTypes limits the file picker; empty allows everything
	ImageTypes []string

	// StartDir is where the file picker opens
	StartDir string

	// PreviewWidth is the thumbnail width in cells; zero uses the default
	PreviewWidth int

	// Markdown renders bot replies with glamour
	Markdown bool
}

// DefaultImageTypes are the extensions offered by the file picker
var DefaultImageTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// mode is what currently owns the keyboard
type mode int

const (
	modeChat mode = iota
	modePicker
	modeHelp
)

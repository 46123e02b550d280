// Package capture accepts image selections for one chat cycle.
package capture

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/yildizm/snapzoo/internal/logger"
	"github.com/yildizm/snapzoo/internal/preview"
)

// DefaultMaxBytes bounds a selected file
const DefaultMaxBytes int64 = 10 << 20

// Source records how a file reached the surface
type Source string

const (
	SourcePicked  Source = "picked"
	SourceDropped Source = "dropped"
)

// PendingFile is the selected image awaiting analysis
type PendingFile struct {
	Name        string
	Path        string
	Data        []byte
	ContentType string
	Preview     *preview.Image
	Source      Source
}

// Sink receives the outcome of a selection. All calls happen on the
// goroutine that drives the surface.
type Sink interface {
	FileReady(id Identity, file *PendingFile)
	FileFailed(id Identity, err error)
	HighlightChanged(id Identity, on bool)
}

// Surface is the file selection and drop target for one cycle.
//
// A surface is driven from a single goroutine. Once sealed (analysis
// issued) it ignores new selections; once retired (superseded by a newer
// cycle) it ignores everything.
type Surface struct {
	id       Identity
	sink     Sink
	maxBytes  int64
	maxPixels int64
	log       *logger.Logger

	pending      *PendingFile
	highlighted  bool
	pickerHidden bool
	sealed       bool
	retired      bool
}

// Option configures a Surface
type Option func(*Surface)

// WithMaxBytes overrides the file size limit
func WithMaxBytes(n int64) Option {
	return func(s *Surface) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithMaxPixels overrides the declared width*height limit
func WithMaxPixels(n int64) Option {
	return func(s *Surface) {
		if n > 0 {
			s.maxPixels = n
		}
	}
}

// NewSurface creates a surface bound to id
func NewSurface(id Identity, sink Sink, opts ...Option) *Surface {
	s := &Surface{
		id:        id,
		sink:      sink,
		maxBytes:  DefaultMaxBytes,
		maxPixels: preview.DefaultMaxPixels,
		log:       logger.New("capture"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identity returns the surface's identity
func (s *Surface) Identity() Identity {
	return s.id
}

// Choose handles a direct file pick
func (s *Surface) Choose(path string) {
	if !s.accepting() {
		s.log.Debug("ignoring pick on inactive surface", logger.F("surface", s.id.CaptureInputID))
		return
	}
	s.normalize(path, SourcePicked)
}

// Drop handles a drop carrying one or more files. Only the first is used.
func (s *Surface) Drop(paths []string) {
	if s.retired {
		return
	}
	s.setHighlight(false)
	if !s.accepting() || len(paths) == 0 {
		return
	}
	if len(paths) > 1 {
		s.log.Debug("multi-file drop, using first", logger.Count(len(paths)))
	}
	s.normalize(paths[0], SourceDropped)
}

// DragEnter highlights the drop area
func (s *Surface) DragEnter() {
	if s.accepting() {
		s.setHighlight(true)
	}
}

// DragOver keeps the drop area highlighted
func (s *Surface) DragOver() {
	s.DragEnter()
}

// DragLeave clears the highlight
func (s *Surface) DragLeave() {
	if !s.retired {
		s.setHighlight(false)
	}
}

// Pending returns the selected file, or nil
func (s *Surface) Pending() *PendingFile {
	return s.pending
}

// Highlighted reports whether a drag is hovering the surface
func (s *Surface) Highlighted() bool {
	return s.highlighted
}

// PickerVisible reports whether the picker prompt is still shown
func (s *Surface) PickerVisible() bool {
	return !s.pickerHidden && !s.retired
}

// Seal stops accepting selections once analysis has been issued
func (s *Surface) Seal() {
	s.sealed = true
	s.setHighlight(false)
}

// Sealed reports whether analysis has been issued for this surface
func (s *Surface) Sealed() bool {
	return s.sealed
}

// Retire makes the surface inert
func (s *Surface) Retire() {
	s.setHighlight(false)
	s.retired = true
}

// Active reports whether the surface still reacts to input
func (s *Surface) Active() bool {
	return !s.retired
}

func (s *Surface) accepting() bool {
	return !s.retired && !s.sealed
}

func (s *Surface) setHighlight(on bool) {
	if s.highlighted == on {
		return
	}
	s.highlighted = on
	if s.sink != nil {
		s.sink.HighlightChanged(s.id, on)
	}
}

// normalize is the single path both pick and drop converge on
func (s *Surface) normalize(path string, source Source) {
	file, err := s.load(path, source)
	if err != nil {
		s.log.Warn("selection rejected", logger.F("path", path), logger.Error(err))
		if s.sink != nil {
			s.sink.FileFailed(s.id, err)
		}
		return
	}

	s.pending = file
	s.pickerHidden = true
	s.log.Debug("file selected",
		logger.F("surface", s.id.CaptureInputID),
		logger.F("source", string(source)),
		logger.F("name", file.Name))

	if s.sink != nil {
		s.sink.FileReady(s.id, file)
	}
}

func (s *Surface) load(path string, source Source) (*PendingFile, error) {
	if path == "" {
		return nil, NewDecodeError(path, "no file given", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewDecodeError(path, "file does not exist", err)
		}
		return nil, NewDecodeError(path, "cannot stat file", err)
	}
	if info.IsDir() {
		return nil, NewDecodeError(path, "is a directory", nil)
	}
	if info.Size() > s.maxBytes {
		return nil, NewDecodeError(path, fmt.Sprintf("file is larger than %d bytes", s.maxBytes), nil)
	}

	// #nosec G304 - the user explicitly selected this file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDecodeError(path, "cannot read file", err)
	}

	img, err := preview.DecodeLimited(data, s.maxPixels)
	if errors.Is(err, preview.ErrTooLarge) {
		return nil, NewDecodeError(path, "image dimensions too large", err)
	}
	if err != nil {
		return nil, NewDecodeError(path, "not a supported image", err)
	}

	return &PendingFile{
		Name:        filepath.Base(path),
		Path:        path,
		Data:        data,
		ContentType: http.DetectContentType(data),
		Preview:     img,
		Source:      source,
	}, nil
}

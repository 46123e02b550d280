// Package formatter renders a chat session as a transcript.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/flow"
)

// Transcript is everything a finished session produced
type Transcript struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Entries     []conversation.Entry `json:"entries"`
	Cycles      []flow.CycleRecord   `json:"cycles"`
}

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(t *Transcript) ([]byte, error)
}

// New returns the formatter for the given format name
func New(format string, color bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewText(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

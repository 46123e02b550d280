package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// markdownRenderer renders bot replies, rebuilding glamour on width change
type markdownRenderer struct {
	color    bool
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(color bool) *markdownRenderer {
	return &markdownRenderer{color: color}
}

// Render converts md to styled text wrapped at width.
// Falls back to the raw text if glamour cannot render it.
func (r *markdownRenderer) Render(md string, width int) string {
	if strings.TrimSpace(md) == "" || width <= 0 {
		return md
	}

	if r.renderer == nil || r.width != width {
		style := glamour.WithAutoStyle()
		if !r.color {
			style = glamour.WithStandardStyle(styles.NoTTYStyle)
		}
		tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
		if err != nil {
			return md
		}
		r.renderer = tr
		r.width = width
	}

	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/emoji"
	"github.com/yildizm/snapzoo/internal/flow"
)

// textFormatter renders the transcript for a terminal using go-termfmt
type textFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewText creates a text formatter with optional color support
func NewText(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = !emoji.IsEmojiDisabled()
	return &textFormatter{opts: opts}
}

func (f *textFormatter) Format(t *Transcript) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeStatistics(&b, t)

	if len(t.Cycles) > 0 {
		f.writeCycles(&b, t.Cycles)
	}

	f.writeConversation(&b, t.Entries)

	return []byte(b.String()), nil
}

func (f *textFormatter) writeHeader(b *strings.Builder) {
	header := "Snapzoo Transcript"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

func (f *textFormatter) writeStatistics(b *strings.Builder, t *Transcript) {
	s := summarize(t)
	b.WriteString(emoji.GetEmoji("statistics") + " Statistics\n")

	items := []termfmt.TreeItem{
		{Label: "Images", Value: fmt.Sprintf("%d", s.Cycles)},
		{Label: "Recognized", Value: fmt.Sprintf("%d", s.Resolved)},
		{Label: "No match", Value: fmt.Sprintf("%d", s.NoMatch)},
		{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed), Last: s.Latency.Count == 0},
	}
	if s.Latency.Count > 0 {
		items = append(items, termfmt.TreeItem{
			Label: "Response time",
			Value: fmt.Sprintf("avg %s, p95 %s", formatLatency(s.Latency.Avg), formatLatency(s.Latency.P95)),
			Last:  true,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeCycles lists each image with its result and ranked candidates
func (f *textFormatter) writeCycles(b *strings.Builder, cycles []flow.CycleRecord) {
	b.WriteString(emoji.GetEmoji("camera") + " Results\n")

	items := make([]termfmt.TreeItem, 0, len(cycles))
	for i, c := range cycles {
		var children []termfmt.TreeItem
		if c.Result != nil {
			for _, p := range c.Result.Predictions {
				children = append(children, termfmt.TreeItem{
					Label: confidenceBar(p.Confidence) + " " + p.Label,
					Value: fmt.Sprintf("%.0f%%", p.Confidence*100),
				})
			}
		}
		if len(children) > 0 {
			children[len(children)-1].Last = true
		}

		items = append(items, termfmt.TreeItem{
			Label:    fmt.Sprintf("%s %s", outcomeSymbol(c.Outcome), c.FileName),
			Value:    cycleHeadline(c),
			Children: children,
			Last:     i == len(cycles)-1,
		})
	}

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *textFormatter) writeConversation(b *strings.Builder, entries []conversation.Entry) {
	b.WriteString(emoji.GetEmoji("received") + " Conversation\n")

	for _, e := range entries {
		if e.Kind == conversation.KindLoading {
			continue
		}
		fmt.Fprintf(b, "[%s] %s %s\n", e.TimestampLabel, emoji.ForKind(e.Kind.String()), entryText(e))
	}
}

// entryText is the plain rendering of one entry
func entryText(e conversation.Entry) string {
	switch {
	case e.Content.Picker:
		return "(" + e.Content.CaptureAreaID + ") " + e.Content.Text
	case e.Content.FileName != "":
		desc := e.Content.FileName
		if e.Content.Image != nil {
			desc += ", " + e.Content.Image.Describe()
		}
		return "[" + desc + "]"
	default:
		return e.Content.Text
	}
}

package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/flow"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(t *Transcript) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Snapzoo Transcript\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", t.GeneratedAt.Format("2006-01-02 15:04:05"))

	f.writeSummaryTable(&b, t)

	if len(t.Cycles) > 0 {
		f.writeCycleSections(&b, t.Cycles)
	}

	f.writeConversation(&b, t.Entries)

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, t *Transcript) {
	s := summarize(t)
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Images | %d |\n", s.Cycles)
	fmt.Fprintf(b, "| Recognized | %d |\n", s.Resolved)
	fmt.Fprintf(b, "| No match | %d |\n", s.NoMatch)
	fmt.Fprintf(b, "| Failed | %d |\n", s.Failed)
	if s.Latency.Count > 0 {
		fmt.Fprintf(b, "| Avg response | %s |\n", formatLatency(s.Latency.Avg))
		fmt.Fprintf(b, "| Slowest response | %s |\n", formatLatency(s.Latency.Max))
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeCycleSections(b *strings.Builder, cycles []flow.CycleRecord) {
	b.WriteString("## Results\n\n")

	for _, c := range cycles {
		fmt.Fprintf(b, "### %s %s\n\n", outcomeSymbol(c.Outcome), c.FileName)
		fmt.Fprintf(b, "**Result**: %s\n\n", cycleHeadline(c))

		if c.Result == nil || len(c.Result.Predictions) == 0 {
			continue
		}
		b.WriteString("| Candidate | Confidence | |\n")
		b.WriteString("|-----------|------------|---|\n")
		for _, p := range c.Result.Predictions {
			fmt.Fprintf(b, "| %s | %.0f%% | `%s` |\n", p.Label, p.Confidence*100, confidenceBar(p.Confidence))
		}
		b.WriteString("\n")
	}
}

func (f *markdownFormatter) writeConversation(b *strings.Builder, entries []conversation.Entry) {
	b.WriteString("## Conversation\n\n")

	for _, e := range entries {
		switch e.Kind {
		case conversation.KindLoading:
			continue
		case conversation.KindSent:
			fmt.Fprintf(b, "> **%s** you: %s\n>\n", e.TimestampLabel, entryText(e))
		case conversation.KindError:
			fmt.Fprintf(b, "**%s** ⚠ %s\n\n", e.TimestampLabel, e.Content.Text)
		case conversation.KindAction:
			fmt.Fprintf(b, "**%s** → _%s_\n\n", e.TimestampLabel, e.Content.Text)
		default:
			fmt.Fprintf(b, "**%s** %s\n\n", e.TimestampLabel, e.Content.Text)
		}
	}

	b.WriteString("---\n")
	b.WriteString("*Transcript generated by snapzoo*\n")
}

package formatter

import (
	"fmt"
	"time"

	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/snapzoo/internal/emoji"
	"github.com/yildizm/snapzoo/internal/flow"
	"github.com/yildizm/snapzoo/internal/monitor"
)

// Summary counts cycles per outcome
type Summary struct {
	Cycles   int `json:"cycles"`
	Resolved int `json:"resolved"`
	NoMatch  int `json:"no_match"`
	Failed   int `json:"failed"`

	Latency monitor.Latency `json:"latency"`
}

func summarize(t *Transcript) Summary {
	s := Summary{Cycles: len(t.Cycles)}
	durations := make([]time.Duration, 0, len(t.Cycles))
	for _, c := range t.Cycles {
		durations = append(durations, c.Duration)
		switch c.Outcome {
		case flow.OutcomeResolved:
			s.Resolved++
		case flow.OutcomeNoMatch:
			s.NoMatch++
		case flow.OutcomeFailed:
			s.Failed++
		}
	}
	s.Latency = monitor.Summarize(durations)
	return s
}

// formatLatency renders a duration rounded for display
func formatLatency(d time.Duration) string {
	if d >= time.Second {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Millisecond).String()
}

// outcomeSymbol returns the symbol shown next to a cycle
func outcomeSymbol(outcome flow.Outcome) string {
	switch outcome {
	case flow.OutcomeResolved:
		return emoji.GetEmoji("success")
	case flow.OutcomeNoMatch:
		return emoji.GetEmoji("question")
	default:
		return emoji.GetEmoji("error")
	}
}

// cycleHeadline is the one-line result of a cycle
func cycleHeadline(c flow.CycleRecord) string {
	switch c.Outcome {
	case flow.OutcomeResolved:
		return fmt.Sprintf("%s (%.0f%% confidence)", c.Result.Label, c.Result.Confidence*100)
	case flow.OutcomeNoMatch:
		if c.Result != nil && c.Result.Label != "" {
			return fmt.Sprintf("no match, best guess %s (%.0f%%)", c.Result.Label, c.Result.Confidence*100)
		}
		return "no match"
	default:
		return "failed: " + c.Error
	}
}

// confidenceBar draws a bar with go-termfmt, honouring the emoji setting
func confidenceBar(confidence float64) string {
	opts := termfmt.DefaultOptions()
	opts.Emoji = !emoji.IsEmojiDisabled()
	return termfmt.CreateConfidenceBar(confidence, opts)
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/emoji"
	"github.com/yildizm/snapzoo/internal/flow"
)

// defaultThumbWidth is the image preview width in cells
const defaultThumbWidth = 24

// transcriptView renders the conversation into the viewport content
type transcriptView struct {
	styles     *Styles
	markdown   *markdownRenderer
	dropDir    string
	thumbWidth int
}

// frame holds what changes between renders
type frame struct {
	width   int
	snap    flow.Snapshot
	spinner string
}

func (v *transcriptView) render(entries []conversation.Entry, f frame) string {
	if len(entries) == 0 {
		return v.styles.Muted.Render("  ...")
	}

	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(v.renderEntry(e, f))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (v *transcriptView) renderEntry(e conversation.Entry, f frame) string {
	bubbleWidth := max(f.width*3/4, 20)
	ts := v.styles.Timestamp.Render(e.TimestampLabel)

	switch e.Kind {
	case conversation.KindSent:
		var body string
		if e.Content.Picker {
			body = v.renderPicker(e, f)
		} else {
			body = v.styles.Sent.Render(v.renderImage(e, bubbleWidth))
		}
		return alignRight(lipgloss.JoinVertical(lipgloss.Right, body, ts), f.width)

	case conversation.KindReceived:
		text := e.Content.Text
		if v.markdown != nil {
			text = v.markdown.Render(text, bubbleWidth-4)
		}
		body := v.styles.Received.Render(emoji.GetEmoji("received") + " " + text)
		return lipgloss.JoinVertical(lipgloss.Left, body, ts)

	case conversation.KindLoading:
		return v.styles.Loading.Render(f.spinner + " " + e.Content.Text)

	case conversation.KindAction:
		if e.ID == f.snap.LiveActionID {
			return v.styles.Action.Render("[ "+emoji.GetEmoji("action")+" "+e.Content.Text+" ]") +
				" " + v.styles.Help.Render("(n)")
		}
		return v.styles.ActionInert.Render(e.Content.Text)

	case conversation.KindError:
		body := v.styles.Error.Width(bubbleWidth).Render(emoji.GetEmoji("error") + " " + e.Content.Text)
		return lipgloss.JoinVertical(lipgloss.Left, body, ts)

	default:
		return e.Content.Text
	}
}

// renderPicker draws a cycle's file prompt; only the live one shows input hints
func (v *transcriptView) renderPicker(e conversation.Entry, f frame) string {
	live := e.Content.CaptureAreaID == f.snap.App.ActiveCycle.CaptureAreaID
	lines := []string{emoji.GetEmoji("folder") + " " + e.Content.Text}

	if !live {
		return v.styles.Picker.Faint(true).Render(strings.Join(lines, "\n"))
	}
	if f.snap.PickerVisible {
		lines = append(lines, v.styles.Help.Render("ctrl+o browse · type a path · paste to drop"))
		if v.dropDir != "" {
			lines = append(lines, v.styles.Help.Render(emoji.GetEmoji("drop")+" "+v.dropDir))
		}
	}

	style := v.styles.Picker
	if f.snap.Highlighted {
		style = v.styles.DropTarget
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (v *transcriptView) renderImage(e conversation.Entry, width int) string {
	header := emoji.GetEmoji("camera") + " " + e.Content.FileName
	if e.Content.Image == nil {
		return header
	}
	thumbWidth := v.thumbWidth
	if thumbWidth <= 0 {
		thumbWidth = defaultThumbWidth
	}
	thumb := e.Content.Image.Render(min(thumbWidth, width-4))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.styles.Muted.Render(e.Content.Image.Describe()),
		thumb)
}

func alignRight(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, s)
}

// Package ui is the interactive chat window.
package ui

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/emoji"
	"github.com/yildizm/snapzoo/internal/flow"
	"github.com/yildizm/snapzoo/internal/logger"
)

// statusHeight is the status bar plus the input line
const statusHeight = 3

// Model is the chat window
type Model struct {
	ctx     context.Context
	session Session
	updates <-chan flow.Snapshot
	unsub   func()
	log     *logger.Logger

	styles     *Styles
	transcript *transcriptView
	dropDir    string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	picker   filepicker.Model

	width    int
	height   int
	ready    bool
	quitting bool
	mode     mode

	snap    flow.Snapshot
	entries []conversation.Entry
	flash   string
}

// New creates the chat window for session. It subscribes immediately so no
// change between construction and the first render is missed.
func New(ctx context.Context, session Session, opts Options) *Model {
	styles := NewStyles(opts.Theme, opts.Color)

	ti := textinput.New()
	ti.Placeholder = "image path, or paste a file"
	ti.Prompt = emoji.GetEmoji("keyboard") + " "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Loading

	fp := filepicker.New()
	fp.AllowedTypes = opts.ImageTypes
	fp.AutoHeight = true
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}

	var md *markdownRenderer
	if opts.Markdown {
		md = newMarkdownRenderer(opts.Color)
	}

	updates, unsub := session.Subscribe()

	return &Model{
		ctx:     ctx,
		session: session,
		updates: updates,
		unsub:   unsub,
		log:     logger.New("ui"),
		styles:  styles,
		transcript: &transcriptView{
			styles:     styles,
			markdown:   md,
			dropDir:    opts.DropDir,
			thumbWidth: opts.PreviewWidth,
		},
		dropDir:  opts.DropDir,
		viewport: viewport.New(0, 0),
		input:    ti,
		spinner:  sp,
		picker:   fp,
	}
}

// Init starts the subscription, the cursor blink and the spinner
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		fetchSnapshot(m.ctx, m.session),
		waitForSnapshot(m.ctx, m.updates),
	)
}

// Update handles messages and key presses
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case snapshotMsg:
		return m.handleSnapshot(msg)
	case resultMsg:
		return m.handleResult(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snap.App.IsAnalyzing {
			m.refresh(false)
		}
		return m, cmd
	}

	if m.mode == modePicker {
		return m.updatePicker(msg)
	}
	return m, nil
}

// handleWindowResize sizes the viewport to what the status bar leaves
func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-statusHeight-1, 1)
	m.input.Width = max(msg.Width-4, 10)
	m.refresh(true)

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// handleKeyPress routes keys by mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.handleQuit()
	}

	switch m.mode {
	case modeHelp:
		m.mode = modeChat
		return m, nil
	case modePicker:
		if msg.String() == "esc" {
			m.mode = modeChat
			return m, nil
		}
		return m.updatePicker(msg)
	}

	if msg.Paste {
		return m.handlePaste(string(msg.Runes))
	}

	empty := m.input.Value() == ""
	switch msg.String() {
	case "ctrl+o":
		return m.handleOpenPicker()
	case "ctrl+a":
		return m.handleAnalyze()
	case "ctrl+n":
		return m.handleNextImage()
	case "enter":
		return m.handleEnter()
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "q":
		if empty {
			return m.handleQuit()
		}
	case "n":
		if empty {
			return m.handleNextImage()
		}
	case "?":
		if empty {
			m.mode = modeHelp
			return m, nil
		}
	case "esc":
		m.input.Reset()
		m.flash = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleQuit drops the subscription and stops the program
func (m *Model) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.unsub()
	return m, tea.Quit
}

// handlePaste treats pasted file paths as a drop onto the active cycle
func (m *Model) handlePaste(text string) (tea.Model, tea.Cmd) {
	if !capture.LooksLikeDrop(text) {
		m.input.SetValue(m.input.Value() + strings.TrimSpace(text))
		m.input.CursorEnd()
		return m, nil
	}

	paths := capture.ParseDropped(text)
	for i, p := range paths {
		paths[i] = expandHome(p)
	}
	m.log.Debug("paste treated as drop", logger.Count(len(paths)))
	return m, sessionCall(m.ctx, "drop", func(ctx context.Context) error {
		return m.session.DropFiles(ctx, paths)
	})
}

// handleEnter chooses a typed path, or analyzes when the line is empty
func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	if value == "" {
		if m.snap.LiveActionID != "" {
			return m.handleNextImage()
		}
		return m.handleAnalyze()
	}

	// a single quoted or escaped path is unwrapped, anything else is taken literally
	path := value
	if parsed := capture.ParseDropped(value); len(parsed) == 1 {
		path = parsed[0]
	}
	path = expandHome(path)
	return m, sessionCall(m.ctx, "choose", func(ctx context.Context) error {
		return m.session.Choose(ctx, path)
	})
}

func (m *Model) handleAnalyze() (tea.Model, tea.Cmd) {
	return m, sessionCall(m.ctx, "analyze", m.session.Analyze)
}

// handleNextImage activates the live action, if any
func (m *Model) handleNextImage() (tea.Model, tea.Cmd) {
	return m, sessionCall(m.ctx, "next", func(ctx context.Context) error {
		_, err := m.session.ActivateLiveAction(ctx)
		return err
	})
}

func (m *Model) handleOpenPicker() (tea.Model, tea.Cmd) {
	if !m.snap.PickerVisible {
		m.flash = emoji.GetEmoji("info") + " this cycle already has an image"
		return m, nil
	}
	m.mode = modePicker
	return m, m.picker.Init()
}

// updatePicker forwards to the file picker and chooses on selection
func (m *Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = modeChat
		return m, tea.Batch(cmd, sessionCall(m.ctx, "choose", func(ctx context.Context) error {
			return m.session.Choose(ctx, path)
		}))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.flash = emoji.GetEmoji("warning") + " not an image: " + path
	}
	return m, cmd
}

// handleSnapshot re-renders and waits for the next change
func (m *Model) handleSnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	m.snap = msg.snap
	m.entries = m.session.Entries()
	m.refresh(true)

	if m.quitting {
		return m, nil
	}
	return m, waitForSnapshot(m.ctx, m.updates)
}

func (m *Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, flow.ErrAnalysisInFlight), errors.Is(msg.err, flow.ErrNoFile):
		m.flash = ""
	case worthShowing(msg.err):
		m.log.Warn("session call failed", logger.F("op", msg.op), logger.Error(msg.err))
		m.flash = emoji.GetEmoji("error") + " " + msg.op + ": " + msg.err.Error()
	default:
		m.flash = ""
	}
	return m, nil
}

// refresh rebuilds the viewport content, following the newest entry when asked
func (m *Model) refresh(follow bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript.render(m.entries, frame{
		width:   m.width,
		snap:    m.snap,
		spinner: m.spinner.View(),
	}))
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}

// View renders the chat window
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting snapzoo..."
	}

	switch m.mode {
	case modePicker:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render(emoji.GetEmoji("folder")+" "+m.picker.CurrentDirectory),
			m.picker.View(),
			m.styles.Help.Render("enter select · esc back"))
	case modeHelp:
		return m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderStatusBar(),
		m.input.View())
}

// renderStatusBar shows the state, the notice and the pending file
func (m *Model) renderStatusBar() string {
	parts := []string{m.styles.Title.Render(m.snap.State.String())}

	if m.snap.Highlighted {
		parts = append(parts, m.styles.Notice.Render(emoji.GetEmoji("drop")+" drop"))
	}
	if m.snap.PendingFile != "" {
		name := runewidth.Truncate(m.snap.PendingFile, max(m.width/4, 8), "…")
		parts = append(parts, emoji.GetEmoji("camera")+" "+name)
	}
	if m.snap.CanAnalyze {
		parts = append(parts, m.styles.Help.Render("enter/ctrl+a analyze"))
	}

	notice := m.flash
	if notice == "" {
		notice = m.snap.Notice
	}
	left := strings.Join(parts, "  ")
	room := m.width - lipgloss.Width(left) - 2
	if notice != "" && room > 4 {
		left += "  " + m.styles.Notice.Render(runewidth.Truncate(notice, room, "…"))
	}

	return m.styles.StatusBar.Width(m.width).Render(left)
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Title.Render(emoji.GetEmoji("help") + " Keys"),
		"",
		"  enter        choose typed path; analyze when empty",
		"  ctrl+a       analyze the selected image",
		"  ctrl+o       browse for an image",
		"  paste        drop the pasted file",
		"  n / ctrl+n   " + msgNextImage,
		"  pgup/pgdown  scroll the conversation",
		"  q / ctrl+c   quit",
	}
	if m.dropDir != "" {
		lines = append(lines, "", "  "+emoji.GetEmoji("drop")+" files copied into "+m.dropDir+" are dropped")
	}
	lines = append(lines, "", m.styles.Help.Render("any key to return"))

	box := m.styles.Picker.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// msgNextImage labels the live action key
const msgNextImage = "다른 이미지 분석하기"

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// Run runs the chat window until the user quits or ctx ends
func Run(ctx context.Context, session Session, opts Options) error {
	model := New(ctx, session, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

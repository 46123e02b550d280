package flow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/snapzoo/internal/analysis"
	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/config"
	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/eventloop"
	"github.com/yildizm/snapzoo/internal/logger"
	"github.com/yildizm/snapzoo/internal/sequencer"
)

// DefaultThreshold is the lowest confidence treated as a match
const DefaultThreshold = 0.4

// Scheduler serializes controller work onto one goroutine
type Scheduler interface {
	Post(fn func()) bool
	AfterFunc(d time.Duration, fn func()) *eventloop.Timer
}

// Options tunes the controller
type Options struct {
	Threshold      float64
	ActionDelay    time.Duration
	PacingInterval time.Duration
	ChunkMaxLength int
	MaxImageBytes  int64
	MaxImagePixels int64
	Notifier       Notifier
}

// OptionsFromConfig maps chat configuration onto controller options
func OptionsFromConfig(cfg *config.ChatConfig) Options {
	return Options{
		Threshold:      cfg.MatchThreshold,
		ActionDelay:    cfg.ActionDelay,
		PacingInterval: cfg.PacingInterval,
		ChunkMaxLength: cfg.ChunkMaxLength,
		MaxImageBytes:  cfg.MaxImageBytes,
		MaxImagePixels: cfg.MaxImagePixels,
	}
}

var _ capture.Sink = (*Controller)(nil)

// CycleRecord is the outcome of one analyzed cycle
type CycleRecord struct {
	Cycle    capture.Identity `json:"cycle"`
	FileName string           `json:"file_name"`
	Source   capture.Source   `json:"source"`
	Outcome  Outcome          `json:"outcome"`
	Result   *analysis.Result `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
	Duration time.Duration    `json:"duration"`
}

// cycleScope holds everything that must not outlive its cycle
type cycleScope struct {
	requestID string
	file      *capture.PendingFile
	issuedAt  time.Time
	cancel    context.CancelFunc
	task      *sequencer.Task
	timer     *eventloop.Timer
	outcome   Outcome
	actionID  string
}

// Controller is the chat state machine. All methods except Close must be
// called on the scheduler's goroutine.
type Controller struct {
	sched    Scheduler
	log      *conversation.Log
	analyzer analysis.Analyzer
	seq      *sequencer.Sequencer
	factory  *Factory
	opts     Options
	logger   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	started      bool
	state        State
	app          AppState
	surface      *capture.Surface
	scope        cycleScope
	notice       string
	highlighted  bool
	liveActionID string
	selectionErr error
	records      []CycleRecord

	listeners []func(Snapshot)
}

// New creates a controller writing to log and analyzing with analyzer
func New(sched Scheduler, log *conversation.Log, analyzer analysis.Analyzer, opts Options) *Controller {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.ActionDelay < 0 {
		opts.ActionDelay = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		sched:    sched,
		log:      log,
		analyzer: analyzer,
		seq:      sequencer.New(sched, opts.PacingInterval, opts.ChunkMaxLength),
		opts:     opts,
		logger:   logger.New("flow"),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.factory = newFactory(c, opts.MaxImageBytes, opts.MaxImagePixels)

	log.OnAction(c.onAction)
	log.OnChange(func(conversation.Event) { c.emit() })
	return c
}

// OnChange registers a listener called on every state change
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.listeners = append(c.listeners, fn)
}

// Log returns the conversation log
func (c *Controller) Log() *conversation.Log {
	return c.log
}

// Start greets the user and opens the first cycle
func (c *Controller) Start() {
	if c.started {
		return
	}
	c.started = true

	c.log.Append(conversation.KindReceived, conversation.Content{Text: msgGreeting}, 0)
	c.openCycle(capture.NewIdentity(c.app.UploadCount))
}

// Records returns the finished cycles in order
func (c *Controller) Records() []CycleRecord {
	out := make([]CycleRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Snapshot returns the current view of the controller
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		State:        c.state,
		App:          c.app,
		Outcome:      c.scope.outcome,
		Notice:       c.notice,
		Highlighted:  c.highlighted,
		CanAnalyze:   c.canAnalyze(),
		LiveActionID: c.liveActionID,
	}
	if c.surface != nil {
		snap.PickerVisible = c.surface.PickerVisible()
		if f := c.surface.Pending(); f != nil {
			snap.PendingFile = f.Name
		}
	}
	return snap
}

// Choose selects a file for the active cycle
func (c *Controller) Choose(path string) error {
	if c.surface == nil {
		return ErrNotStarted
	}
	c.selectionErr = nil
	c.surface.Choose(path)
	return c.takeSelectionErr()
}

// Drop delivers dropped files to the active cycle
func (c *Controller) Drop(paths []string) error {
	if c.surface == nil {
		return ErrNotStarted
	}
	c.selectionErr = nil
	c.surface.Drop(paths)
	return c.takeSelectionErr()
}

// DragEnter highlights the active drop area
func (c *Controller) DragEnter() {
	if c.surface != nil {
		c.surface.DragEnter()
	}
}

// DragLeave clears the drop highlight
func (c *Controller) DragLeave() {
	if c.surface != nil {
		c.surface.DragLeave()
	}
}

func (c *Controller) takeSelectionErr() error {
	err := c.selectionErr
	c.selectionErr = nil
	return err
}

// FileReady implements capture.Sink
func (c *Controller) FileReady(id capture.Identity, file *capture.PendingFile) {
	if id != c.app.ActiveCycle {
		return
	}

	c.log.Append(conversation.KindSent, conversation.Content{
		Image:         file.Preview,
		FileName:      file.Name,
		CaptureAreaID: id.CaptureAreaID,
	}, id.Sequence)

	c.state = StateReady
	c.notice = msgReady
	c.logger.Info("file ready", logger.F("cycle", id.Sequence), logger.F("name", file.Name), logger.F("source", string(file.Source)))
	c.emit()
}

// FileFailed implements capture.Sink
func (c *Controller) FileFailed(id capture.Identity, err error) {
	c.selectionErr = err
	if id != c.app.ActiveCycle {
		return
	}

	text := msgDecodeFailed
	var decodeErr *capture.DecodeError
	if errors.As(err, &decodeErr) {
		text = msgDecodeFailed + " (" + decodeErr.Reason + ")"
	}
	c.log.Append(conversation.KindError, conversation.Content{Text: text}, id.Sequence)
	c.emit()
}

// HighlightChanged implements capture.Sink
func (c *Controller) HighlightChanged(id capture.Identity, on bool) {
	if id != c.app.ActiveCycle {
		return
	}
	c.highlighted = on
	c.emit()
}

func (c *Controller) canAnalyze() bool {
	return c.state == StateReady && !c.app.IsAnalyzing && c.surface != nil &&
		!c.surface.Sealed() && c.surface.Pending() != nil
}

// Analyze submits the pending file. A trigger while a request is
// outstanding is dropped.
func (c *Controller) Analyze() error {
	if c.surface == nil {
		return ErrNotStarted
	}
	if c.app.IsAnalyzing {
		c.logger.Debug("analyze ignored, request in flight")
		c.setNotice(msgInFlight)
		return ErrAnalysisInFlight
	}

	file := c.surface.Pending()
	switch {
	case c.surface.Sealed():
		c.setNotice(msgStartNew)
		return ErrNoFile
	case file == nil:
		c.setNotice(msgSelectImage)
		return ErrNoFile
	}

	cycle := c.app.ActiveCycle.Sequence
	c.surface.Seal()
	loading := c.log.Append(conversation.KindLoading, conversation.Content{Text: msgAnalyzing}, cycle)

	requestID := uuid.New().String()
	ctx, cancel := context.WithCancel(c.ctx)
	c.scope.requestID = requestID
	c.scope.cancel = cancel
	c.scope.file = file
	c.scope.issuedAt = time.Now()
	c.app.IsAnalyzing = true
	c.app.CurrentLoadingEntryID = loading.ID
	c.state = StateAnalyzing
	c.notice = ""

	c.logger.Info("analysis requested", logger.F("cycle", cycle), logger.F("request", requestID), logger.F("name", file.Name))

	upload := analysis.Upload{Name: file.Name, ContentType: file.ContentType, Data: file.Data}
	go func() {
		start := time.Now()
		result, err := c.analyzer.Analyze(ctx, upload)
		c.logger.Debug("analysis returned", logger.F("request", requestID), logger.Duration(time.Since(start)))
		if !c.sched.Post(func() { c.complete(requestID, loading.ID, result, err) }) {
			c.logger.Debug("loop stopped before completion", logger.F("request", requestID))
		}
	}()

	c.emit()
	return nil
}

// complete handles a finished request on the loop
func (c *Controller) complete(requestID, loadingID string, result *analysis.Result, err error) {
	if requestID != c.scope.requestID {
		c.logger.Debug("ignoring stale completion", logger.F("request", requestID))
		if rmErr := c.log.Remove(loadingID); rmErr != nil && !errors.Is(rmErr, conversation.ErrNotFound) {
			c.logger.Warn("failed to remove stale loading entry", logger.Error(rmErr))
		}
		return
	}

	c.scope.requestID = ""
	if c.scope.cancel != nil {
		c.scope.cancel()
		c.scope.cancel = nil
	}
	if rmErr := c.log.Remove(loadingID); rmErr != nil {
		c.logger.Warn("failed to remove loading entry", logger.Error(rmErr))
	}
	c.app.IsAnalyzing = false
	c.app.CurrentLoadingEntryID = ""

	cycle := c.app.ActiveCycle.Sequence
	outcome := OutcomeFailed
	if err == nil {
		outcome = Classify(result, c.opts.Threshold)
	}
	c.scope.outcome = outcome

	switch outcome {
	case OutcomeResolved:
		c.state = StateResolved
		c.log.Append(conversation.KindReceived, conversation.Content{Text: resolvedMessage(result.Label)}, cycle)
		c.scope.task = c.seq.Reveal(result.Narrative,
			func(chunk string) {
				c.log.Append(conversation.KindReceived, conversation.Content{Text: chunk}, cycle)
			},
			c.appendAction)

	case OutcomeNoMatch:
		c.state = StateNoMatch
		c.log.Append(conversation.KindReceived, conversation.Content{Text: msgNoMatch}, cycle)
		c.scope.timer = c.sched.AfterFunc(c.opts.ActionDelay, c.appendAction)

	default:
		c.state = StateFailed
		c.logger.Warn("analysis failed", logger.F("cycle", cycle), logger.Error(err))
		c.log.Append(conversation.KindError, conversation.Content{Text: failedMessage(analysis.Describe(err))}, cycle)
		c.scope.timer = c.sched.AfterFunc(c.opts.ActionDelay, c.appendAction)
	}

	label := ""
	if result != nil {
		label = result.Label
	}
	record := CycleRecord{
		Cycle:    c.app.ActiveCycle,
		FileName: c.scope.file.Name,
		Source:   c.scope.file.Source,
		Outcome:  outcome,
		Result:   result,
		Duration: time.Since(c.scope.issuedAt),
	}
	if err != nil {
		record.Error = analysis.Describe(err)
	}
	c.records = append(c.records, record)
	c.logger.Info("cycle finished", logger.F("cycle", cycle), logger.F("outcome", string(outcome)), logger.F("label", label))
	if c.opts.Notifier != nil {
		if nErr := c.opts.Notifier.Notify("snapzoo", notification(outcome, label)); nErr != nil {
			c.logger.Warn("notification failed", logger.Error(nErr))
		}
	}
	c.emit()
}

// Classify picks the terminal branch for a successful response
func Classify(result *analysis.Result, threshold float64) Outcome {
	if result == nil || !result.Success || result.Label == "" || !result.HasConfidence {
		return OutcomeNoMatch
	}
	if result.Confidence >= threshold {
		return OutcomeResolved
	}
	return OutcomeNoMatch
}

// appendAction closes the cycle with its single action entry
func (c *Controller) appendAction() {
	if c.scope.actionID != "" {
		return
	}
	c.scope.task = nil
	c.scope.timer = nil

	entry := c.log.Append(conversation.KindAction, conversation.Content{Text: msgAction}, c.app.ActiveCycle.Sequence)
	c.scope.actionID = entry.ID
	c.liveActionID = entry.ID
	c.state = StateAwaitingNextCycle
	c.emit()
}

// onAction receives activations from the log. Only the live action opens a
// new cycle.
func (c *Controller) onAction(entry conversation.Entry) {
	if entry.ID != c.liveActionID {
		c.logger.Debug("ignoring inactive action", logger.F("entry", entry.ID))
		return
	}
	c.StartNewCycle()
}

// Activate activates a log entry by id
func (c *Controller) Activate(id string) bool {
	return c.log.Activate(id)
}

// ActivateLiveAction activates the newest unconsumed action, if any
func (c *Controller) ActivateLiveAction() bool {
	if c.liveActionID == "" {
		return false
	}
	return c.log.Activate(c.liveActionID)
}

func (c *Controller) setNotice(text string) {
	c.notice = text
	c.emit()
}

// cancelScope stops timers, reveals and requests belonging to the current
// cycle
func (c *Controller) cancelScope() {
	if c.scope.task != nil {
		c.scope.task.Cancel()
	}
	if c.scope.timer != nil {
		c.scope.timer.Stop()
	}
	if c.scope.cancel != nil {
		c.scope.cancel()
	}
	c.scope = cycleScope{}
}

// Close abandons any outstanding work. Safe to call from any goroutine
// once the loop has stopped.
func (c *Controller) Close() {
	c.cancel()
}

func (c *Controller) emit() {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.listeners {
		fn(snap)
	}
}

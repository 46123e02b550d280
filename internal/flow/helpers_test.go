package flow

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yildizm/snapzoo/internal/analysis"
	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/eventloop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	uploads []analysis.Upload
	result  *analysis.Result
	err     error
	gate    chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, upload analysis.Upload) (*analysis.Result, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	gate, result, err := f.gate, f.result, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if result == nil {
		return nil, err
	}
	out := *result
	return &out, err
}

func (f *fakeAnalyzer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(_, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

type harness struct {
	t        *testing.T
	loop     *eventloop.Loop
	ctrl     *Controller
	session  *Session
	analyzer *fakeAnalyzer
	dir      string
}

func newHarness(t *testing.T, analyzer *fakeAnalyzer, tune func(*Options)) *harness {
	t.Helper()

	opts := Options{PacingInterval: time.Millisecond, ActionDelay: time.Millisecond}
	if tune != nil {
		tune(&opts)
	}

	loop := eventloop.New(0)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	ctrl := New(loop, conversation.NewLog(), analyzer, opts)
	session := NewSession(loop, ctrl)

	t.Cleanup(func() {
		session.Close()
		cancel()
		require.NoError(t, <-errc)
	})
	require.NoError(t, session.Start(context.Background()))

	return &harness{t: t, loop: loop, ctrl: ctrl, session: session, analyzer: analyzer, dir: t.TempDir()}
}

func (h *harness) ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	h.t.Cleanup(cancel)
	return ctx
}

func (h *harness) writePNG(name string, shade uint8) string {
	h.t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: shade, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	require.NoError(h.t, png.Encode(&buf, img))
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// runCycle selects path, analyzes it and waits for the action entry
func (h *harness) runCycle(path string) Snapshot {
	h.t.Helper()
	require.NoError(h.t, h.session.Choose(h.ctx(), path))
	require.NoError(h.t, h.session.Analyze(h.ctx()))
	return h.waitAwaiting()
}

func (h *harness) waitAwaiting() Snapshot {
	h.t.Helper()
	snap, err := h.session.WaitFor(h.ctx(), func(s Snapshot) bool {
		return s.State == StateAwaitingNextCycle
	})
	require.NoError(h.t, err)
	return snap
}

// summary renders entries as kind:text lines for comparison
func summary(entries []conversation.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		text := e.Content.Text
		switch {
		case e.Content.Picker:
			text = "<picker " + e.Content.CaptureAreaID + ">"
		case e.Content.Image != nil:
			text = "<image " + e.Content.FileName + ">"
		}
		out = append(out, e.Kind.String()+":"+text)
	}
	return out
}

func countKind(entries []conversation.Entry, kind conversation.Kind) int {
	n := 0
	for _, e := range entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func fox() *analysis.Result {
	return &analysis.Result{
		Success:       true,
		Label:         "fox",
		RawLabel:      "a fox",
		Confidence:    0.82,
		HasConfidence: true,
		Narrative:     "Foxes are clever. They live in dens. They eat small mammals.",
	}
}

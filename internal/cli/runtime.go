package cli

import (
	"fmt"
	"time"

	"github.com/yildizm/snapzoo/internal/analysis"
	"github.com/yildizm/snapzoo/internal/config"
	"github.com/yildizm/snapzoo/internal/conversation"
	"github.com/yildizm/snapzoo/internal/eventloop"
	"github.com/yildizm/snapzoo/internal/flow"
)

// demoLatency makes the offline analyzer feel like a network round trip
const demoLatency = 800 * time.Millisecond

// chatRuntime is one wired-up conversation
type chatRuntime struct {
	loop    *eventloop.Loop
	session *flow.Session
}

// newAnalyzer picks the offline demo analyzer or the HTTP client
func newAnalyzer(cfg *config.Config, demo bool) (analysis.Analyzer, error) {
	if demo {
		return analysis.NewDemoAnalyzer(demoLatency), nil
	}
	client, err := analysis.NewClient(&cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}
	return client, nil
}

// newRuntime builds the loop, log, controller and session. The caller runs the loop.
func newRuntime(cfg *config.Config, analyzer analysis.Analyzer) *chatRuntime {
	opts := flow.OptionsFromConfig(&cfg.Chat)
	if cfg.Chat.Notify {
		opts.Notifier = flow.NewDesktopNotifier()
	}

	loop := eventloop.New(0)
	log := conversation.NewLog(conversation.WithTimestampFormat(cfg.Output.TimestampFormat))
	ctrl := flow.New(loop, log, analyzer, opts)

	return &chatRuntime{
		loop:    loop,
		session: flow.NewSession(loop, ctrl),
	}
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/config"
	"github.com/yildizm/snapzoo/internal/logger"
	"github.com/yildizm/snapzoo/internal/ui"
)

// chatOptions are the flags shared by the root command and chat
type chatOptions struct {
	endpoint string
	dropDir  string
	theme    string
	demo     bool
}

func (o *chatOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.endpoint, "endpoint", "", "analysis service base URL (overrides config)")
	cmd.Flags().StringVar(&o.dropDir, "drop-dir", "", "treat files copied into this directory as dropped")
	cmd.Flags().StringVar(&o.theme, "theme", "", "color theme (default, high-contrast, minimal)")
	cmd.Flags().BoolVar(&o.demo, "demo", false, "use canned answers instead of the analysis service")
}

// apply lets flags override the loaded configuration
func (o *chatOptions) apply(cfg *config.Config) error {
	if o.endpoint != "" {
		cfg.Server.Endpoint = o.endpoint
	}
	if o.dropDir != "" {
		cfg.Chat.DropDir = o.dropDir
	}
	if o.theme != "" {
		cfg.Output.Theme = o.theme
	}
	return cfg.Validate()
}

func newChatCommand() *cobra.Command {
	o := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat",
		Long: `Open the chat window.

Type a path and press enter to choose an image, press ctrl+o to browse, or
paste a file from your file manager to drop it. With --drop-dir, files copied
into that directory are dropped onto the chat as well.

Examples:
  snapzoo chat
  snapzoo chat --demo
  snapzoo chat --drop-dir ~/Pictures/inbox --theme minimal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, o)
		},
	}
	o.register(cmd)
	return cmd
}

func runChat(cmd *cobra.Command, o *chatOptions) error {
	cfg := GetGlobalConfig()
	if err := o.apply(cfg); err != nil {
		return err
	}

	// The chat owns the terminal, so logs always go to a file
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = config.DefaultConfig().Logging.File
	}
	closeLog, err := logger.Setup(logger.Options{Verbose: isVerbose(), File: logFile})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	theme, ok := ui.ThemeByName(cfg.Output.Theme)
	if !ok {
		return fmt.Errorf("unknown theme: %s", cfg.Output.Theme)
	}

	analyzer, err := newAnalyzer(cfg, o.demo)
	if err != nil {
		return err
	}
	rt := newRuntime(cfg, analyzer)
	defer rt.session.Close()

	var watcher *capture.DropWatcher
	if cfg.Chat.DropDir != "" {
		watcher, err = capture.NewDropWatcher(cfg.Chat.DropDir, cfg.Chat.DropSettle, rt.session)
		if err != nil {
			return fmt.Errorf("failed to watch drop directory: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.loop.Run(gctx)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		// Leaving the chat stops the loop and the watcher
		defer cancel()
		if err := rt.session.Start(gctx); err != nil {
			return fmt.Errorf("failed to start chat: %w", err)
		}
		return ui.Run(gctx, rt.session, ui.Options{
			Theme:        theme,
			Color:        useColor(cfg),
			DropDir:      dropDirLabel(watcher),
			ImageTypes:   ui.DefaultImageTypes,
			PreviewWidth: cfg.Output.PreviewWidth,
			Markdown:     cfg.Output.Markdown,
		})
	})

	return g.Wait()
}

func dropDirLabel(w *capture.DropWatcher) string {
	if w == nil {
		return ""
	}
	return w.Dir()
}

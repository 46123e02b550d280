package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/snapzoo/internal/capture"
	"github.com/yildizm/snapzoo/internal/flow"
	"github.com/yildizm/snapzoo/internal/formatter"
	"github.com/yildizm/snapzoo/internal/logger"
)

var (
	analyzeOutputFmt  string
	analyzeOutputFile string
	analyzeEndpoint   string
	analyzeTimeout    time.Duration
	analyzeDemo       bool
	analyzeNoPacing   bool
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <image>...",
		Short: "Analyze images without the chat window",
		Long: `Run each image through the chat as its own round and print the transcript.

Every image goes through the same steps as in the chat: it is chosen,
analyzed, the answer is revealed, and "다른 이미지 분석하기" starts the
next round.

Examples:
  snapzoo analyze fox.jpg
  snapzoo analyze --output json *.png
  snapzoo analyze --demo --no-pacing --output markdown --output-file report.md cat.png owl.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&analyzeOutputFmt, "output", "o", "", "output format (text, json, markdown, csv)")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().StringVar(&analyzeEndpoint, "endpoint", "", "analysis service base URL (overrides config)")
	cmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "overall timeout (0 for none)")
	cmd.Flags().BoolVar(&analyzeDemo, "demo", false, "use canned answers instead of the analysis service")
	cmd.Flags().BoolVar(&analyzeNoPacing, "no-pacing", false, "reveal answers at once instead of chunk by chunk")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()
	if analyzeEndpoint != "" {
		cfg.Server.Endpoint = analyzeEndpoint
	}
	if analyzeNoPacing {
		cfg.Chat.PacingInterval = 0
		cfg.Chat.ActionDelay = 0
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := logger.Setup(logger.Options{Verbose: isVerbose()})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	format := analyzeOutputFmt
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	f, err := formatter.New(format, analyzeOutputFile == "" && useColor(cfg))
	if err != nil {
		return err
	}

	for _, path := range args {
		if err := validateFilePath(path); err != nil {
			return err
		}
	}

	analyzer, err := newAnalyzer(cfg, analyzeDemo)
	if err != nil {
		return err
	}
	rt := newRuntime(cfg, analyzer)
	defer rt.session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()
	}

	transcript, err := runHeadless(ctx, rt, args)
	if err != nil {
		return err
	}

	output, err := f.Format(transcript)
	if err != nil {
		return fmt.Errorf("failed to format transcript: %w", err)
	}
	return handleOutputDestination(cmd, output)
}

// runHeadless drives the loop for the duration of the batch
func runHeadless(ctx context.Context, rt *chatRuntime, paths []string) (*formatter.Transcript, error) {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		return rt.loop.Run(gctx)
	})

	transcript, err := analyzeImages(ctx, rt.session, paths)
	stopLoop()
	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	return transcript, err
}

// analyzeImages runs one cycle per image. A file that cannot be opened is
// reported in the conversation and the next file reuses the same cycle.
func analyzeImages(ctx context.Context, s *flow.Session, paths []string) (*formatter.Transcript, error) {
	log := logger.New("analyze")

	if err := s.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	awaitingNext := false
	for _, path := range paths {
		if awaitingNext {
			ok, err := s.ActivateLiveAction(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.New("no action available to start the next image")
			}
			awaitingNext = false
		}

		if err := s.Choose(ctx, path); err != nil {
			var decodeErr *capture.DecodeError
			if errors.As(err, &decodeErr) {
				log.Warn("skipping file", logger.F("path", path), logger.Error(err))
				continue
			}
			return nil, err
		}

		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		cycle := snap.App.ActiveCycle.Sequence

		if err := s.Analyze(ctx); err != nil {
			return nil, fmt.Errorf("failed to analyze %s: %w", path, err)
		}
		if _, err := s.WaitFor(ctx, func(snap flow.Snapshot) bool {
			return snap.App.ActiveCycle.Sequence == cycle && snap.State == flow.StateAwaitingNextCycle
		}); err != nil {
			return nil, fmt.Errorf("waiting for %s: %w", path, err)
		}
		awaitingNext = true
	}

	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	return &formatter.Transcript{
		GeneratedAt: time.Now(),
		Entries:     s.Entries(),
		Cycles:      records,
	}, nil
}

func handleOutputDestination(cmd *cobra.Command, output []byte) error {
	if analyzeOutputFile == "" {
		_, err := cmd.OutOrStdout().Write(output)
		return err
	}

	if err := validateOutputFilePath(analyzeOutputFile); err != nil {
		return err
	}
	if err := writeOutputBytesToFile(output, analyzeOutputFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Transcript written to %s\n", analyzeOutputFile)
	return nil
}

// validateFilePath rejects paths that are not plain files
func validateFilePath(path string) error {
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("invalid file path: %q", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func validateOutputFilePath(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("output directory does not exist: %s", dir)
	}
	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}

package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yildizm/snapzoo/internal/config"
	"github.com/yildizm/snapzoo/internal/emoji"
)

// annotationSkipConfig marks commands that load configuration themselves, or not at all
const annotationSkipConfig = "skip-config"

var (
	cfgFile string
	verbose bool
	noColor bool
	noEmoji bool

	globalConfig *config.Config
)

// NewRootCommand creates the root command. Without a subcommand it opens the chat.
func NewRootCommand(version, commit, date string) *cobra.Command {
	chatFlags := &chatOptions{}

	rootCmd := &cobra.Command{
		Use:   "snapzoo",
		Short: "Chat with an animal photo recognizer",
		Long: `snapzoo is a terminal chat client for an animal photo analysis service.

Pick, type or drop an image into the conversation, ask for an analysis and
read the answer as it arrives. Each image is its own round; start the next
one from the "다른 이미지 분석하기" button.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)

			if cmd.Annotations[annotationSkipConfig] == "true" {
				return nil
			}
			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			globalConfig = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, chatFlags)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")

	chatFlags.register(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Annotations: map[string]string{annotationSkipConfig: "true"},
		Short:       "Show version information",
		Long:        "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "snapzoo %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// GetGlobalConfig returns the loaded configuration, or defaults before loading
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		return config.DefaultConfig()
	}
	return globalConfig
}

// Global helpers
func isVerbose() bool {
	return verbose || GetGlobalConfig().Logging.Verbose
}

// useColor resolves --no-color, NO_COLOR and the configured color mode
func useColor(cfg *config.Config) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch cfg.Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTerminal(os.Stdout)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

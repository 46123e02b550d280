package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Chat    ChatConfig    `yaml:"chat" json:"chat"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig configures the remote analysis endpoint
type ServerConfig struct {
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`           // base URL of the analysis service
	AnalyzePath  string        `yaml:"analyze_path" json:"analyze_path"`   // multipart upload route
	Token        string        `yaml:"token" json:"token"`                 // optional bearer token
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`             // per-request timeout
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`     // retry count for transient failures
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"` // base delay between retries
}

// ChatConfig configures the conversation flow
type ChatConfig struct {
	MatchThreshold float64       `yaml:"match_threshold" json:"match_threshold"`   // minimum confidence for a match
	ChunkMaxLength int           `yaml:"chunk_max_length" json:"chunk_max_length"` // max characters per revealed chunk
	PacingInterval time.Duration `yaml:"pacing_interval" json:"pacing_interval"`   // delay between revealed chunks
	ActionDelay    time.Duration `yaml:"action_delay" json:"action_delay"`         // delay before the action prompt on no-match/failure
	MaxImageBytes  int64         `yaml:"max_image_bytes" json:"max_image_bytes"`   // upper bound on a selected file
	MaxImagePixels int64         `yaml:"max_image_pixels" json:"max_image_pixels"` // upper bound on declared width*height
	DropDir        string        `yaml:"drop_dir" json:"drop_dir"`                 // directory watched for dropped files
	DropSettle     time.Duration `yaml:"drop_settle" json:"drop_settle"`           // quiet period that ends a drop burst
	Notify         bool          `yaml:"notify" json:"notify"`                     // desktop notification on cycle end
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat   string `yaml:"default_format" json:"default_format"`     // text|json|markdown|csv
	ColorMode       string `yaml:"color_mode" json:"color_mode"`             // auto|always|never
	Theme           string `yaml:"theme" json:"theme"`                       // default|high-contrast|minimal
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format"` // time-of-day label layout
	PreviewWidth    int    `yaml:"preview_width" json:"preview_width"`       // thumbnail width in cells
	Markdown        bool   `yaml:"markdown" json:"markdown"`                 // render received bubbles as markdown
}

// LoggingConfig configures the log sink
type LoggingConfig struct {
	File    string `yaml:"file" json:"file"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Endpoint:     "http://127.0.0.1:8000",
			AnalyzePath:  "/api/analyze/",
			Timeout:      60 * time.Second,
			MaxRetries:   2,
			RetryBackoff: time.Second,
		},
		Chat: ChatConfig{
			MatchThreshold: 0.4,
			ChunkMaxLength: 150,
			PacingInterval: time.Second,
			ActionDelay:    time.Second,
			MaxImageBytes:  10 << 20, // 10MB
			MaxImagePixels: 40_000_000,
			DropSettle:     300 * time.Millisecond,
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			ColorMode:       "auto",
			Theme:           "default",
			TimestampFormat: "15:04",
			PreviewWidth:    24,
			Markdown:        true,
		},
		Logging: LoggingConfig{
			File: "~/.cache/snapzoo/snapzoo.log",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServerConfig(); err != nil {
		return err
	}
	if err := c.validateChatConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return nil
}

// validateServerConfig validates endpoint-related configuration
func (c *Config) validateServerConfig() error {
	if c.Server.Endpoint == "" {
		return fmt.Errorf("server endpoint is required")
	}
	u, err := url.Parse(c.Server.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server endpoint: %s", c.Server.Endpoint)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Server.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.Server.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff must be non-negative")
	}
	return nil
}

// validateChatConfig validates conversation flow configuration
func (c *Config) validateChatConfig() error {
	if c.Chat.MatchThreshold < 0 || c.Chat.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be between 0 and 1")
	}
	if c.Chat.ChunkMaxLength < 1 {
		return fmt.Errorf("chunk_max_length must be greater than 0")
	}
	if c.Chat.PacingInterval < 0 {
		return fmt.Errorf("pacing_interval must be non-negative")
	}
	if c.Chat.ActionDelay < 0 {
		return fmt.Errorf("action_delay must be non-negative")
	}
	if c.Chat.MaxImageBytes < 1 {
		return fmt.Errorf("max_image_bytes must be greater than 0")
	}
	if c.Chat.MaxImagePixels < 1 {
		return fmt.Errorf("max_image_pixels must be greater than 0")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	if c.Output.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.Output.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.Output.Theme)
		}
	}
	if c.Output.PreviewWidth < 0 {
		return fmt.Errorf("preview_width must be non-negative")
	}
	return nil
}

// AnalyzeURL joins the endpoint and analyze path
func (c *Config) AnalyzeURL() (string, error) {
	base, err := url.Parse(c.Server.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid server endpoint: %w", err)
	}
	return base.JoinPath(c.Server.AnalyzePath).String(), nil
}

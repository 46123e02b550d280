package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.snapzoo.yaml",               // Project-specific config (highest priority)
	"~/.config/snapzoo/config.yaml", // User config
	"/etc/snapzoo/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.snapzoo.yaml
// 4. ~/.config/snapzoo/config.yaml
// 5. /etc/snapzoo/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Booleans cannot be told apart from "unset" after unmarshaling, so look
	// at which keys the document actually carries.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig, sectionKeys(raw))

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Server Config
		"SNAPZOO_SERVER_ENDPOINT":      func(v string) error { config.Server.Endpoint = v; return nil },
		"SNAPZOO_SERVER_ANALYZE_PATH":  func(v string) error { config.Server.AnalyzePath = v; return nil },
		"SNAPZOO_SERVER_TOKEN":         func(v string) error { config.Server.Token = v; return nil },
		"SNAPZOO_SERVER_TIMEOUT":       func(v string) error { return parseDuration(v, &config.Server.Timeout) },
		"SNAPZOO_SERVER_MAX_RETRIES":   func(v string) error { return parseInt(v, &config.Server.MaxRetries) },
		"SNAPZOO_SERVER_RETRY_BACKOFF": func(v string) error { return parseDuration(v, &config.Server.RetryBackoff) },

		// Chat Config
		"SNAPZOO_CHAT_MATCH_THRESHOLD":  func(v string) error { return parseFloat(v, &config.Chat.MatchThreshold) },
		"SNAPZOO_CHAT_CHUNK_MAX_LENGTH": func(v string) error { return parseInt(v, &config.Chat.ChunkMaxLength) },
		"SNAPZOO_CHAT_PACING_INTERVAL":  func(v string) error { return parseDuration(v, &config.Chat.PacingInterval) },
		"SNAPZOO_CHAT_ACTION_DELAY":     func(v string) error { return parseDuration(v, &config.Chat.ActionDelay) },
		"SNAPZOO_CHAT_MAX_IMAGE_BYTES":  func(v string) error { return parseInt64(v, &config.Chat.MaxImageBytes) },
		"SNAPZOO_CHAT_MAX_IMAGE_PIXELS": func(v string) error { return parseInt64(v, &config.Chat.MaxImagePixels) },
		"SNAPZOO_CHAT_DROP_DIR":         func(v string) error { config.Chat.DropDir = v; return nil },
		"SNAPZOO_CHAT_DROP_SETTLE":      func(v string) error { return parseDuration(v, &config.Chat.DropSettle) },
		"SNAPZOO_CHAT_NOTIFY":           func(v string) error { return parseBool(v, &config.Chat.Notify) },

		// Output Config
		"SNAPZOO_OUTPUT_DEFAULT_FORMAT":   func(v string) error { config.Output.DefaultFormat = v; return nil },
		"SNAPZOO_OUTPUT_COLOR_MODE":       func(v string) error { config.Output.ColorMode = v; return nil },
		"SNAPZOO_OUTPUT_THEME":            func(v string) error { config.Output.Theme = v; return nil },
		"SNAPZOO_OUTPUT_TIMESTAMP_FORMAT": func(v string) error { config.Output.TimestampFormat = v; return nil },
		"SNAPZOO_OUTPUT_PREVIEW_WIDTH":    func(v string) error { return parseInt(v, &config.Output.PreviewWidth) },
		"SNAPZOO_OUTPUT_MARKDOWN":         func(v string) error { return parseBool(v, &config.Output.Markdown) },

		// Logging Config
		"SNAPZOO_LOGGING_FILE":    func(v string) error { config.Logging.File = v; return nil },
		"SNAPZOO_LOGGING_VERBOSE": func(v string) error { return parseBool(v, &config.Logging.Verbose) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	// Clean the path to resolve any ".." components
	cleanPath := filepath.Clean(path)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Ensure it's a YAML file
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	// Convert to absolute path for additional validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Basic sanity check - ensure it's not in sensitive system directories
	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// sectionKeys keeps the mapping sections of a raw document. Scalars such
// as version carry no nested keys.
func sectionKeys(raw map[string]interface{}) map[string]map[string]interface{} {
	sections := make(map[string]map[string]interface{}, len(raw))
	for name, v := range raw {
		if m, ok := v.(map[string]interface{}); ok {
			sections[name] = m
		}
	}
	return sections
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination; booleans are taken
// when the key is present in raw.
func mergeConfigs(dst, src *Config, raw map[string]map[string]interface{}) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeServerConfig(&dst.Server, &src.Server)
	mergeChatConfig(&dst.Chat, &src.Chat, raw["chat"])
	mergeOutputConfig(&dst.Output, &src.Output, raw["output"])
	mergeLoggingConfig(&dst.Logging, &src.Logging, raw["logging"])
}

// mergeServerConfig merges endpoint configuration
func mergeServerConfig(dst, src *ServerConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.AnalyzePath != "" {
		dst.AnalyzePath = src.AnalyzePath
	}
	if src.Token != "" {
		dst.Token = src.Token
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.RetryBackoff != 0 {
		dst.RetryBackoff = src.RetryBackoff
	}
}

// mergeChatConfig merges conversation flow configuration
func mergeChatConfig(dst, src *ChatConfig, keys map[string]interface{}) {
	if src.MatchThreshold != 0 {
		dst.MatchThreshold = src.MatchThreshold
	}
	if src.ChunkMaxLength != 0 {
		dst.ChunkMaxLength = src.ChunkMaxLength
	}
	if src.PacingInterval != 0 {
		dst.PacingInterval = src.PacingInterval
	}
	if src.ActionDelay != 0 {
		dst.ActionDelay = src.ActionDelay
	}
	if src.MaxImageBytes != 0 {
		dst.MaxImageBytes = src.MaxImageBytes
	}
	if src.MaxImagePixels != 0 {
		dst.MaxImagePixels = src.MaxImagePixels
	}
	if src.DropDir != "" {
		dst.DropDir = src.DropDir
	}
	if src.DropSettle != 0 {
		dst.DropSettle = src.DropSettle
	}
	mergeIfSet(&dst.Notify, src.Notify, keys, "notify")
}

// mergeOutputConfig merges output configuration
func mergeOutputConfig(dst, src *OutputConfig, keys map[string]interface{}) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.Theme != "" {
		dst.Theme = src.Theme
	}
	if src.TimestampFormat != "" {
		dst.TimestampFormat = src.TimestampFormat
	}
	if src.PreviewWidth != 0 {
		dst.PreviewWidth = src.PreviewWidth
	}
	mergeIfSet(&dst.Markdown, src.Markdown, keys, "markdown")
}

// mergeLoggingConfig merges logging configuration
func mergeLoggingConfig(dst, src *LoggingConfig, keys map[string]interface{}) {
	if src.File != "" {
		dst.File = src.File
	}
	mergeIfSet(&dst.Verbose, src.Verbose, keys, "verbose")
}

// mergeIfSet merges a boolean only when the key appears in the section
func mergeIfSet(dst *bool, src bool, keys map[string]interface{}, key string) {
	if _, ok := keys[key]; ok {
		*dst = src
	}
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseInt64(s string, dst *int64) error {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

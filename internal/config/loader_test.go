package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	loader := &Loader{configPaths: []string{filepath.Join(t.TempDir(), "missing.yaml")}}

	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Server.Endpoint != "http://127.0.0.1:8000" {
		t.Errorf("Expected default endpoint, got %s", cfg.Server.Endpoint)
	}
	if !cfg.Output.Markdown {
		t.Error("Expected markdown enabled by default")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test-config.yaml")

	configContent := `version: "1.0"
server:
  endpoint: "https://zoo.example.com"
  timeout: 15s
chat:
  match_threshold: 0.6
  pacing_interval: 250ms
  notify: true
output:
  theme: "minimal"
  markdown: false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := NewLoader().LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.Server.Endpoint != "https://zoo.example.com" {
		t.Errorf("Expected endpoint from file, got %s", cfg.Server.Endpoint)
	}
	if cfg.Server.Timeout != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", cfg.Server.Timeout)
	}
	if cfg.Chat.MatchThreshold != 0.6 {
		t.Errorf("Expected threshold 0.6, got %v", cfg.Chat.MatchThreshold)
	}
	if cfg.Chat.PacingInterval != 250*time.Millisecond {
		t.Errorf("Expected pacing 250ms, got %v", cfg.Chat.PacingInterval)
	}
	if !cfg.Chat.Notify {
		t.Error("Expected notify enabled from file")
	}
	if cfg.Output.Markdown {
		t.Error("Expected markdown disabled from file")
	}
	// Untouched values keep their defaults
	if cfg.Chat.ChunkMaxLength != 150 {
		t.Errorf("Expected default chunk length, got %d", cfg.Chat.ChunkMaxLength)
	}
	if cfg.Server.AnalyzePath != "/api/analyze/" {
		t.Errorf("Expected default analyze path, got %s", cfg.Server.AnalyzePath)
	}
}

func TestLoadConfigKeepsUnsetBooleans(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  theme: minimal\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.Output.Markdown {
		t.Error("markdown default should survive a file that does not mention it")
	}
}

func TestLoadConfigWithTopLevelScalars(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "versioned.yaml")
	content := "version: \"1.0\"\nchat:\n  max_image_pixels: 1000000\noutput:\n  markdown: false\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Output.Markdown {
		t.Error("markdown: false should be applied next to a version key")
	}
	if cfg.Chat.MaxImagePixels != 1000000 {
		t.Errorf("Expected max image pixels 1000000, got %d", cfg.Chat.MaxImagePixels)
	}
}

func TestSectionKeysSkipsScalars(t *testing.T) {
	raw := map[string]interface{}{
		"version": "1.0",
		"chat":    map[string]interface{}{"notify": true},
	}

	sections := sectionKeys(raw)
	if _, ok := sections["version"]; ok {
		t.Error("scalar keys should not become sections")
	}
	if _, ok := sections["chat"]["notify"]; !ok {
		t.Error("expected chat section to keep its keys")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  endpoint: [unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader().LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("Expected parse error, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SNAPZOO_SERVER_ENDPOINT", "http://10.0.0.2:9000")
	t.Setenv("SNAPZOO_SERVER_MAX_RETRIES", "5")
	t.Setenv("SNAPZOO_CHAT_MATCH_THRESHOLD", "0.55")
	t.Setenv("SNAPZOO_CHAT_ACTION_DELAY", "2s")
	t.Setenv("SNAPZOO_CHAT_MAX_IMAGE_BYTES", "2048")
	t.Setenv("SNAPZOO_OUTPUT_MARKDOWN", "false")

	cfg := DefaultConfig()
	if err := NewLoader().applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides failed: %v", err)
	}

	if cfg.Server.Endpoint != "http://10.0.0.2:9000" {
		t.Errorf("endpoint override not applied: %s", cfg.Server.Endpoint)
	}
	if cfg.Server.MaxRetries != 5 {
		t.Errorf("retries override not applied: %d", cfg.Server.MaxRetries)
	}
	if cfg.Chat.MatchThreshold != 0.55 {
		t.Errorf("threshold override not applied: %v", cfg.Chat.MatchThreshold)
	}
	if cfg.Chat.ActionDelay != 2*time.Second {
		t.Errorf("action delay override not applied: %v", cfg.Chat.ActionDelay)
	}
	if cfg.Chat.MaxImageBytes != 2048 {
		t.Errorf("max image bytes override not applied: %d", cfg.Chat.MaxImageBytes)
	}
	if cfg.Output.Markdown {
		t.Error("markdown override not applied")
	}
}

func TestApplyEnvOverridesInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SNAPZOO_SERVER_TIMEOUT":       "soon",
		"SNAPZOO_CHAT_CHUNK_MAX_LENGTH": "long",
		"SNAPZOO_CHAT_NOTIFY":          "maybe",
	}

	for envVar, value := range tests {
		t.Run(envVar, func(t *testing.T) {
			t.Setenv(envVar, value)
			err := NewLoader().applyEnvOverrides(DefaultConfig())
			if err == nil {
				t.Fatalf("expected error for %s=%s", envVar, value)
			}
			if !strings.Contains(err.Error(), envVar) {
				t.Errorf("error should name %s: %v", envVar, err)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(existing, []byte("version: \"1.0\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	original := ConfigPaths
	ConfigPaths = []string{filepath.Join(dir, "missing.yaml"), existing}
	t.Cleanup(func() { ConfigPaths = original })

	path, found := FindConfigFile()
	if !found {
		t.Fatal("expected a config file to be found")
	}
	if path != existing {
		t.Errorf("expected %s, got %s", existing, path)
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"config.yaml", false},
		{"config.yml", false},
		{"config.json", true},
		{"../outside.yaml", true},
		{"/proc/self/environ.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfigPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

// Copyright 2024-2026 Aiku AI

package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestConfigUnmarshalYAML(t *testing.T) {
	t.Parallel()
	input := `
database:
    path: /var/lib/bridge/players.yml
linking:
    enabled: true
    code_ttl_seconds: 120
    redis_url: redis://localhost:6379/0
chat:
    channel_id: 123456789012345678
    chat_format: "<%player-name%> %content%"
datetime:
    timezone: Europe/Berlin
    use_24h: true
admin_api_addr: ":9999"
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		t.Fatalf("UnmarshalYAML: %v", err)
	}
	if cfg.Database.Path != "/var/lib/bridge/players.yml" {
		t.Errorf("Database.Path: got %q", cfg.Database.Path)
	}
	if !cfg.Linking.Enabled || cfg.Linking.CodeTTLSeconds != 120 {
		t.Errorf("Linking: %+v", cfg.Linking)
	}
	if cfg.Chat.ChannelID != 123456789012345678 {
		t.Errorf("ChannelID: got %d", cfg.Chat.ChannelID)
	}
	if cfg.Chat.ChatFormat != "<%player-name%> %content%" {
		t.Errorf("ChatFormat: got %q", cfg.Chat.ChatFormat)
	}
	if cfg.AdminAPIAddr != ":9999" {
		t.Errorf("AdminAPIAddr: got %q", cfg.AdminAPIAddr)
	}
}

func TestConfigPostProcessDefaults(t *testing.T) {
	t.Parallel()
	var cfg Config
	if err := cfg.PostProcess(); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if cfg.Database.Path != "players.yml" {
		t.Errorf("Database.Path default: %q", cfg.Database.Path)
	}
	if cfg.AdminAPIAddr != ":29330" {
		t.Errorf("AdminAPIAddr default: %q", cfg.AdminAPIAddr)
	}
	if cfg.CodeTTL() != DefaultCodeTTL {
		t.Errorf("CodeTTL default: %v", cfg.CodeTTL())
	}
	if cfg.Chat.ChatFormat == "" {
		t.Error("ChatFormat default missing")
	}
	if cfg.Location() == nil {
		t.Error("Location should never be nil")
	}
}

func TestConfigPostProcessTimezone(t *testing.T) {
	t.Parallel()
	cfg := Config{DateTime: DateTimeConfig{Timezone: "America/New_York"}}
	if err := cfg.PostProcess(); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Errorf("Location: got %q", cfg.Location())
	}
}

func TestConfigPostProcessInvalidTimezone(t *testing.T) {
	t.Parallel()
	cfg := Config{DateTime: DateTimeConfig{Timezone: "Neverland/Nowhere"}}
	if err := cfg.PostProcess(); err == nil {
		t.Error("PostProcess should reject unknown timezone")
	}
}

func TestConfigCodeTTL(t *testing.T) {
	t.Parallel()
	cfg := Config{Linking: LinkingConfig{CodeTTLSeconds: 90}}
	if got := cfg.CodeTTL(); got != 90*time.Second {
		t.Errorf("CodeTTL: got %v", got)
	}
}

func TestLoadConfigFromExample(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeFile(path, ExampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Linking.Enabled {
		t.Error("example config should enable linking")
	}
	if cfg.CodeTTL() != 5*time.Minute {
		t.Errorf("CodeTTL: got %v", cfg.CodeTTL())
	}
	if len(cfg.Logging.Writers) == 0 {
		t.Error("example config should configure log writers")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeFile(path, "{broken"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestExampleConfigNotEmpty(t *testing.T) {
	t.Parallel()
	if ExampleConfig == "" {
		t.Error("ExampleConfig should not be empty (embedded from example-config.yaml)")
	}
}

// Copyright 2024-2026 Aiku AI

package bridge

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/aiku/mc-discord-bridge/pkg/discord"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config holds the bridge configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Linking  LinkingConfig  `yaml:"linking"`
	Chat     ChatConfig     `yaml:"chat"`
	DateTime DateTimeConfig `yaml:"datetime"`

	// AdminAPIAddr is the listen address for the admin HTTP API.
	// Defaults to ":29330".
	AdminAPIAddr string `yaml:"admin_api_addr"`
	// MessagesPath points at an optional template override file. Empty
	// means the built-in templates.
	MessagesPath string `yaml:"messages_path"`

	Logging zeroconfig.Config `yaml:"logging"`

	location *time.Location `yaml:"-"`
}

// DatabaseConfig locates the account snapshot file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LinkingConfig controls account linking.
type LinkingConfig struct {
	Enabled bool `yaml:"enabled"`
	// CodeTTLSeconds is the lifetime of an issued linking code.
	CodeTTLSeconds int `yaml:"code_ttl_seconds"`
	// RedisURL switches code storage to Redis when set, so codes
	// survive restarts and can be shared between processes.
	RedisURL string `yaml:"redis_url"`
}

// ChatConfig controls message relaying.
type ChatConfig struct {
	// ChannelID is the Discord channel bridged to game chat.
	ChannelID discord.Snowflake `yaml:"channel_id"`

	ChatFormat    string `yaml:"chat_format"`
	JoinMessage   string `yaml:"join_message"`
	QuitMessage   string `yaml:"quit_message"`
	DeathMessage  string `yaml:"death_message"`
	DeathFallback string `yaml:"death_fallback"`

	// DiscordURL is the invite link shown by the in-game discord command.
	DiscordURL string `yaml:"discord_url"`
}

// DateTimeConfig controls timestamp rendering in game chat.
type DateTimeConfig struct {
	// Timezone is an IANA zone name. Empty means the host zone.
	Timezone string `yaml:"timezone"`
	Use24h   bool   `yaml:"use_24h"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

func (c *Config) PostProcess() error {
	if c.Database.Path == "" {
		c.Database.Path = "players.yml"
	}
	if c.AdminAPIAddr == "" {
		c.AdminAPIAddr = ":29330"
	}
	if c.Linking.CodeTTLSeconds <= 0 {
		c.Linking.CodeTTLSeconds = int(DefaultCodeTTL / time.Second)
	}
	if c.Chat.ChatFormat == "" {
		c.Chat.ChatFormat = "**%player-name%**: %content%"
	}
	if c.DateTime.Timezone == "" {
		c.location = time.Local
		return nil
	}
	loc, err := time.LoadLocation(c.DateTime.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.DateTime.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location returns the timezone resolved by PostProcess.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// CodeTTL returns the linking code lifetime.
func (c *Config) CodeTTL() time.Duration {
	return time.Duration(c.Linking.CodeTTLSeconds) * time.Second
}

// LoadConfig reads and post-processes the configuration at path.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

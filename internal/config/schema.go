// Package config defines the witibot configuration schema.
package config

import (
	"os"
	"path/filepath"
)

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
}

// BridgeConfig configures the generic WebSocket bridge channel.
type BridgeConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token,omitempty"`
}

func defaultBridgeConfig() BridgeConfig {
	return BridgeConfig{URL: "ws://localhost:3001"}
}

// ChannelsConfig groups all channel configs.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Bridge   BridgeConfig   `json:"bridge"`
}

// ProviderConfig holds credentials for the completion API.
type ProviderConfig struct {
	APIKey         string `json:"apiKey"`
	APIBase        string `json:"apiBase,omitempty"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

func defaultProviderConfig() ProviderConfig {
	return ProviderConfig{Model: "gpt-4o-mini", TimeoutSeconds: 60}
}

// AccessConfig holds the admission allowlist and the operator identity.
type AccessConfig struct {
	ApprovedChats []int64 `json:"approvedChats"`
	OperatorChat  int64   `json:"operatorChat"`
}

// BacklogConfig tunes the per-conversation message log.
type BacklogConfig struct {
	DefaultCapacity int    `json:"defaultCapacity"`
	PrintLimit      int    `json:"printLimit"`
	SnapshotPath    string `json:"snapshotPath"`
	DefaultLanguage string `json:"defaultLanguage"`
}

func defaultBacklogConfig() BacklogConfig {
	return BacklogConfig{
		DefaultCapacity: 200,
		PrintLimit:      10,
		SnapshotPath:    filepath.Join(DataDir(), "backlog.json"),
		DefaultLanguage: "English",
	}
}

// MensaConfig configures cafeteria menus and the daily favorites delivery.
type MensaConfig struct {
	Enabled       bool   `json:"enabled"`
	FavoritesPath string `json:"favoritesPath"`
	// DeliverCron is a standard cron expression for the favorites job.
	DeliverCron string `json:"deliverCron"`
	Timezone    string `json:"timezone"`
}

func defaultMensaConfig() MensaConfig {
	return MensaConfig{
		Enabled:       true,
		FavoritesPath: filepath.Join(DataDir(), "favorites.json"),
		DeliverCron:   "0 9 * * 1-5",
		Timezone:      "Europe/Zurich",
	}
}

// Config is the root configuration object.
type Config struct {
	Channels ChannelsConfig `json:"channels"`
	Provider ProviderConfig `json:"provider"`
	Access   AccessConfig   `json:"access"`
	Backlog  BacklogConfig  `json:"backlog"`
	Mensa    MensaConfig    `json:"mensa"`
	LogFile  string         `json:"logFile"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Channels: ChannelsConfig{Bridge: defaultBridgeConfig()},
		Provider: defaultProviderConfig(),
		Backlog:  defaultBacklogConfig(),
		Mensa:    defaultMensaConfig(),
		LogFile:  filepath.Join(DataDir(), "bot.log"),
	}
}

// DataDir returns the witibot data directory: ~/.witibot.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".witibot"
	}
	return filepath.Join(home, ".witibot")
}

// ConfigPath returns the default configuration file path: ~/.witibot/config.json.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

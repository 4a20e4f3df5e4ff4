// Package config provides configuration management for the chat server.
package config

import (
	"errors"
	"fmt"
)

// Config holds the chat server configuration.
type Config struct {
	ListenAddress string        `toml:"listen_address"`
	LogLevel      string        `toml:"log_level"`
	UsersFile     string        `toml:"users_file"`
	ChatLogFile   string        `toml:"chat_log_file"`
	Auth          AuthConfig    `toml:"auth"`
	Limits        LimitsConfig  `toml:"limits"`
	Metrics       MetricsConfig `toml:"metrics"`
}

// AuthConfig holds credential store settings.
type AuthConfig struct {
	// PasswordHashing stores bcrypt hashes in the users file instead of
	// clear-text passwords. The file format is unchanged.
	PasswordHashing bool `toml:"password_hashing"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	// MaxClients bounds the number of concurrent sessions.
	MaxClients int `toml:"max_clients"`
	// BufferSize is the maximum accepted line length in bytes. Longer lines
	// are split at this boundary.
	BufferSize int `toml:"buffer_size"`
	// RecentMessages is the capacity of the recent-message ring.
	RecentMessages int `toml:"recent_messages"`
	// MailboxSize is the global capacity of the offline message queue.
	MailboxSize int `toml:"mailbox_size"`
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		ListenAddress: ":5555",
		LogLevel:      "info",
		UsersFile:     "users.txt",
		ChatLogFile:   "chat.log",
		Limits: LimitsConfig{
			MaxClients:     10,
			BufferSize:     1024,
			RecentMessages: 20,
			MailboxSize:    10,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9102",
			Path:    "/metrics",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen_address is required")
	}

	if c.UsersFile == "" {
		return errors.New("users_file is required")
	}

	if c.Limits.MaxClients <= 0 {
		return errors.New("max_clients must be positive")
	}

	if c.Limits.BufferSize <= 0 {
		return errors.New("buffer_size must be positive")
	}

	if c.Limits.RecentMessages <= 0 {
		return errors.New("recent_messages must be positive")
	}

	if c.Limits.MailboxSize <= 0 {
		return errors.New("mailbox_size must be positive")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

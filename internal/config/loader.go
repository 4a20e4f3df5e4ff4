package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath  string
	Listen      string
	LogLevel    string
	UsersFile   string
	ChatLogFile string
	MaxClients  int
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./chatd.toml", "Path to configuration file")
	flag.StringVar(&f.Listen, "listen", "", "Listen address")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.UsersFile, "users-file", "", "Path to the credential file")
	flag.StringVar(&f.ChatLogFile, "chat-log", "", "Path to the chat log file")
	flag.IntVar(&f.MaxClients, "max-clients", 0, "Maximum concurrent sessions")

	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config.
// If the file does not exist, returns the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig Config
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return mergeConfig(cfg, fileConfig), nil
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Listen != "" {
		cfg.ListenAddress = f.Listen
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.UsersFile != "" {
		cfg.UsersFile = f.UsersFile
	}

	if f.ChatLogFile != "" {
		cfg.ChatLogFile = f.ChatLogFile
	}

	if f.MaxClients > 0 {
		cfg.Limits.MaxClients = f.MaxClients
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}

// mergeConfig merges non-zero values from src into dst.
func mergeConfig(dst, src Config) Config {
	if src.ListenAddress != "" {
		dst.ListenAddress = src.ListenAddress
	}

	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.UsersFile != "" {
		dst.UsersFile = src.UsersFile
	}

	if src.ChatLogFile != "" {
		dst.ChatLogFile = src.ChatLogFile
	}

	// password_hashing is an explicit boolean, merged only when set.
	if src.Auth.PasswordHashing {
		dst.Auth.PasswordHashing = true
	}

	if src.Limits.MaxClients > 0 {
		dst.Limits.MaxClients = src.Limits.MaxClients
	}

	if src.Limits.BufferSize > 0 {
		dst.Limits.BufferSize = src.Limits.BufferSize
	}

	if src.Limits.RecentMessages > 0 {
		dst.Limits.RecentMessages = src.Limits.RecentMessages
	}

	if src.Limits.MailboxSize > 0 {
		dst.Limits.MailboxSize = src.Limits.MailboxSize
	}

	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}

	if src.Metrics.Address != "" {
		dst.Metrics.Address = src.Metrics.Address
	}

	if src.Metrics.Path != "" {
		dst.Metrics.Path = src.Metrics.Path
	}

	return dst
}

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
	Hostname    string
	LogLevel    string
	Listen      string
	MaxClients  int
	Credentials string
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./netchatd.toml", "Path to configuration file")
	flag.StringVar(&f.Hostname, "hostname", "", "Server hostname")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.Listen, "listen", "", "Listen address (replaces config listen address)")
	flag.IntVar(&f.MaxClients, "max-clients", 0, "Maximum concurrent sessions")
	flag.StringVar(&f.Credentials, "credentials", "", "Path to the username:password credential file")

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

	var fileConfig FileConfig
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg = mergeConfig(cfg, fileConfig.Server)

	return cfg, nil
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Hostname != "" {
		cfg.Hostname = f.Hostname
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.Listen != "" {
		cfg.Listen = f.Listen
	}

	if f.MaxClients > 0 {
		cfg.Limits.MaxClients = f.MaxClients
	}

	if f.Credentials != "" {
		cfg.Credentials.Path = f.Credentials
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
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}

	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.Listen != "" {
		dst.Listen = src.Listen
	}

	if src.WebSocket.Enabled {
		dst.WebSocket.Enabled = src.WebSocket.Enabled
	}
	if src.WebSocket.Address != "" {
		dst.WebSocket.Address = src.WebSocket.Address
	}
	if src.WebSocket.Path != "" {
		dst.WebSocket.Path = src.WebSocket.Path
	}

	if src.Admin.Enabled {
		dst.Admin.Enabled = src.Admin.Enabled
	}
	if src.Admin.Address != "" {
		dst.Admin.Address = src.Admin.Address
	}

	if src.Timeouts.Idle != "" {
		dst.Timeouts.Idle = src.Timeouts.Idle
	}

	if src.Limits.MaxClients > 0 {
		dst.Limits.MaxClients = src.Limits.MaxClients
	}
	if src.Limits.RecentBufferSize > 0 {
		dst.Limits.RecentBufferSize = src.Limits.RecentBufferSize
	}
	if src.Limits.MailboxCapacity > 0 {
		dst.Limits.MailboxCapacity = src.Limits.MailboxCapacity
	}

	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}

	if src.Credentials.Path != "" {
		dst.Credentials.Path = src.Credentials.Path
	}

	if src.LogFile != "" {
		dst.LogFile = src.LogFile
	}

	return dst
}

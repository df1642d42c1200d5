// Package config provides configuration management for the chat server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// FileConfig is the top-level wrapper for the TOML configuration file.
type FileConfig struct {
	Server Config `toml:"server"`
}

// Config holds the chat server's configuration.
type Config struct {
	Hostname    string            `toml:"hostname"`
	LogLevel    string            `toml:"log_level"`
	Listen      string            `toml:"listen"`
	WebSocket   WebSocketConfig   `toml:"websocket"`
	Admin       AdminConfig       `toml:"admin"`
	Timeouts    TimeoutsConfig    `toml:"timeouts"`
	Limits      LimitsConfig      `toml:"limits"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Credentials CredentialsConfig `toml:"credentials"`
	LogFile     string            `toml:"log_file"`
}

// WebSocketConfig configures the optional websocket gateway.
type WebSocketConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// AdminConfig configures the optional admin HTTP surface (health, metrics, room census).
type AdminConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// TimeoutsConfig defines timeout durations.
type TimeoutsConfig struct {
	Idle string `toml:"idle"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	MaxClients       int `toml:"max_clients"`
	RecentBufferSize int `toml:"recent_buffer_size"`
	MailboxCapacity  int `toml:"mailbox_capacity"`
}

// MetricsConfig controls whether Prometheus metrics are collected.
// Metrics are exposed through the admin HTTP surface, not a separate listener.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// CredentialsConfig configures where the username:password store lives.
type CredentialsConfig struct {
	Path string `toml:"path"`
}

// Default returns a Config with sensible default values, matching the
// reference implementation's compile-time constants.
func Default() Config {
	return Config{
		Hostname: "localhost",
		LogLevel: "info",
		Listen:   ":5555",
		WebSocket: WebSocketConfig{
			Enabled: false,
			Address: ":5556",
			Path:    "/chat",
		},
		Admin: AdminConfig{
			Enabled: false,
			Address: ":8080",
		},
		Timeouts: TimeoutsConfig{
			Idle: "30m",
		},
		Limits: LimitsConfig{
			MaxClients:       10,
			RecentBufferSize: 20,
			MailboxCapacity:  10,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Credentials: CredentialsConfig{
			Path: "users.txt",
		},
		LogFile: "chat.log",
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}

	if c.Listen == "" {
		return errors.New("listen address is required")
	}

	if c.Limits.MaxClients <= 0 {
		return errors.New("max_clients must be positive")
	}

	if c.Limits.RecentBufferSize <= 0 {
		return errors.New("recent_buffer_size must be positive")
	}

	if c.Limits.MailboxCapacity <= 0 {
		return errors.New("mailbox_capacity must be positive")
	}

	if c.Timeouts.Idle != "" {
		if _, err := time.ParseDuration(c.Timeouts.Idle); err != nil {
			return fmt.Errorf("invalid idle timeout: %w", err)
		}
	}

	if c.Credentials.Path == "" {
		return errors.New("credentials path is required")
	}

	if c.WebSocket.Enabled && c.WebSocket.Address == "" {
		return errors.New("websocket address is required when websocket gateway is enabled")
	}

	if c.Admin.Enabled && c.Admin.Address == "" {
		return errors.New("admin address is required when admin surface is enabled")
	}

	return nil
}

// IdleTimeout returns the idle timeout as a time.Duration.
// Returns 30 minutes if not configured or invalid.
func (c *TimeoutsConfig) IdleTimeout() time.Duration {
	if c.Idle == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(c.Idle)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Streakmate client.
//
// Configuration is loaded from a single file specified by:
//   - STREAKMATE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery beyond built-in defaults.
// Environment variables do not override file values; the file is the single
// source of truth. The only expansion performed is ${HOME} and similar path
// variables for portability.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	// Server configures the backend endpoints.
	Server ServerConfig `yaml:"server"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`
}

// ServerConfig configures the backend endpoints.
type ServerConfig struct {
	// URL is the base URL of the REST API, without the /api/v1 prefix.
	// Default: http://localhost:3000
	URL string `yaml:"url"`

	// SocketURL is the websocket endpoint for the live channel. If
	// empty, it is derived from URL by swapping the scheme to ws/wss
	// and appending /socket.
	SocketURL string `yaml:"socket_url"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// File is where log lines are written. The terminal UI owns
	// stdout, so logs go to a file. Default: ${HOME}/.cache/streakmate/client.log
	File string `yaml:"file"`
}

// Default returns the default configuration, used as the base before
// loading the config file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:3000",
		},
		Log: LogConfig{
			Level: "info",
			File:  "${HOME}/.cache/streakmate/client.log",
		},
	}
}

// Load loads configuration from the STREAKMATE_CONFIG environment
// variable. Fails if it is not set; use LoadFile with an explicit path
// otherwise.
func Load() (*Config, error) {
	configPath := os.Getenv("STREAKMATE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("STREAKMATE_CONFIG environment variable not set; " +
			"set it to the path of your streakmate.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if cfg.Server.SocketURL == "" {
		derived, err := deriveSocketURL(cfg.Server.URL)
		if err != nil {
			return nil, err
		}
		cfg.Server.SocketURL = derived
	}
	return cfg, nil
}

// SetServerURL replaces the server URL, typically from a command-line
// override, and re-derives the live-channel endpoint from it.
func (c *Config) SetServerURL(serverURL string) error {
	derived, err := deriveSocketURL(serverURL)
	if err != nil {
		return err
	}
	c.Server.URL = serverURL
	c.Server.SocketURL = derived
	return nil
}

// deriveSocketURL maps the REST base URL to the live-channel endpoint:
// http -> ws, https -> wss, path /socket.
func deriveSocketURL(serverURL string) (string, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parsing server.url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("server.url has unsupported scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/socket"
	return parsed.String(), nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Log.File = expandVars(c.Log.File, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL == "" {
		errs = append(errs, fmt.Errorf("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("server.url must be http or https, got %q", parsed.Scheme))
	}

	if c.Server.SocketURL != "" {
		if parsed, err := url.Parse(c.Server.SocketURL); err != nil {
			errs = append(errs, fmt.Errorf("server.socket_url: %w", err))
		} else if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
			errs = append(errs, fmt.Errorf("server.socket_url must be ws or wss, got %q", parsed.Scheme))
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel maps Log.Level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
}

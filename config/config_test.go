// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streakmate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.URL != "http://localhost:3000" {
		t.Errorf("expected url=http://localhost:3000, got %s", cfg.Server.URL)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected level=info, got %s", cfg.Log.Level)
	}
}

func TestLoad_RequiresStreakmateConfig(t *testing.T) {
	origConfig := os.Getenv("STREAKMATE_CONFIG")
	defer os.Setenv("STREAKMATE_CONFIG", origConfig)

	os.Unsetenv("STREAKMATE_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when STREAKMATE_CONFIG not set, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://api.streakmate.example
  socket_url: wss://api.streakmate.example/socket

log:
  level: debug
  file: /tmp/streakmate.log
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.URL != "https://api.streakmate.example" {
		t.Errorf("expected url=https://api.streakmate.example, got %s", cfg.Server.URL)
	}
	if cfg.Server.SocketURL != "wss://api.streakmate.example/socket" {
		t.Errorf("expected socket_url=wss://api.streakmate.example/socket, got %s", cfg.Server.SocketURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected level=debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.File != "/tmp/streakmate.log" {
		t.Errorf("expected file=/tmp/streakmate.log, got %s", cfg.Log.File)
	}
}

func TestLoadFile_DerivesSocketURL(t *testing.T) {
	tests := []struct {
		url    string
		socket string
	}{
		{"http://localhost:3000", "ws://localhost:3000/socket"},
		{"https://api.streakmate.example", "wss://api.streakmate.example/socket"},
		{"https://example.com/streakmate/", "wss://example.com/streakmate/socket"},
	}

	for _, tt := range tests {
		path := writeConfig(t, "server:\n  url: "+tt.url+"\n")
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile(%s) failed: %v", tt.url, err)
		}
		if cfg.Server.SocketURL != tt.socket {
			t.Errorf("url=%s: socket_url = %s, want %s", tt.url, cfg.Server.SocketURL, tt.socket)
		}
	}
}

func TestSetServerURL(t *testing.T) {
	cfg := Default()
	if err := cfg.SetServerURL("https://api.streakmate.example"); err != nil {
		t.Fatalf("SetServerURL failed: %v", err)
	}
	if cfg.Server.URL != "https://api.streakmate.example" {
		t.Errorf("url = %s, want https://api.streakmate.example", cfg.Server.URL)
	}
	if cfg.Server.SocketURL != "wss://api.streakmate.example/socket" {
		t.Errorf("socket_url = %s, want wss://api.streakmate.example/socket", cfg.Server.SocketURL)
	}

	if err := cfg.SetServerURL("ftp://nope"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
	if cfg.Server.URL != "https://api.streakmate.example" {
		t.Errorf("failed override must not change url, got %s", cfg.Server.URL)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/streakmate.log",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/streakmate.log",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "empty server url",
			modify: func(c *Config) {
				c.Server.URL = ""
			},
			wantErr: true,
		},
		{
			name: "non-http server url",
			modify: func(c *Config) {
				c.Server.URL = "ftp://example.com"
			},
			wantErr: true,
		},
		{
			name: "non-ws socket url",
			modify: func(c *Config) {
				c.Server.SocketURL = "http://example.com/socket"
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "loud"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	level, err := cfg.SlogLevel()
	if err != nil {
		t.Fatalf("SlogLevel failed: %v", err)
	}
	if level != slog.LevelWarn {
		t.Errorf("level = %v, want %v", level, slog.LevelWarn)
	}
}

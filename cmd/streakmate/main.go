// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

// streakmate is the terminal client for the Streakmate messaging
// surface: it authenticates against the REST API, holds the live
// websocket connection, and runs the chat TUI.
//
// Configuration comes from a YAML file named by STREAKMATE_CONFIG or
// --config. Without a restorable session, the client prompts for
// credentials on the terminal (password echo disabled); --register
// creates an account instead of logging in.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/streakmate/streakmate/api"
	"github.com/streakmate/streakmate/auth"
	"github.com/streakmate/streakmate/chat"
	"github.com/streakmate/streakmate/chatui"
	"github.com/streakmate/streakmate/config"
	"github.com/streakmate/streakmate/lib/version"
	"github.com/streakmate/streakmate/realtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var serverURL string
	var logOutput string
	var register bool

	flagSet := pflag.NewFlagSet("streakmate", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to streakmate.yaml (default: $STREAKMATE_CONFIG)")
	flagSet.StringVar(&serverURL, "server", "", "server URL, overriding the configured one")
	flagSet.StringVar(&logOutput, "log-output", "", "log file path, overriding the configured one")
	flagSet.BoolVar(&register, "register", false, "create a new account instead of logging in")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match the usual binary
	// convention.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("streakmate")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else if os.Getenv("STREAKMATE_CONFIG") != "" {
		cfg, err = config.Load()
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return err
	}
	if serverURL != "" {
		if err := cfg.SetServerURL(serverURL); err != nil {
			return err
		}
	}
	if logOutput != "" {
		cfg.Log.File = logOutput
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := api.NewClient(api.ClientConfig{
		BaseURL: cfg.Server.URL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	tokens := api.NewTokenStore()
	session := api.NewSession(client, tokens)
	manager := auth.NewManager(session, logger)

	viewer, err := authenticate(ctx, manager, register)
	if err != nil {
		return err
	}
	logger.Info("authenticated", "user", viewer.Username)

	chatSession := chat.New(chat.Config{
		History:   session,
		Transport: nil, // set below, after the connection exists
		Viewer:    *viewer,
		Logger:    logger,
	})

	model := chatui.NewModel(ctx, session, chatSession, *viewer)
	program := tea.NewProgram(model, tea.WithAltScreen())

	conn, err := realtime.New(realtime.Config{
		URL:    cfg.Server.SocketURL,
		Tokens: tokens,
		Logger: logger,
	}, realtime.Handlers{
		Message:   chatSession.HandleMessage,
		Typing:    chatSession.HandleTyping,
		Reconnect: chatSession.HandleReconnect,
		Notification: func(notification realtime.Notification) {
			program.Send(chatui.NotificationMsg{Notification: notification})
		},
	})
	if err != nil {
		return err
	}
	chatSession.SetTransport(conn)

	if err := conn.Dial(ctx); err != nil {
		return fmt.Errorf("connecting live channel: %w", err)
	}
	defer conn.Close()
	defer chatSession.Close()

	_, err = program.Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Streakmate chat — terminal client for Streakmate messaging.

Reads configuration from the file named by STREAKMATE_CONFIG or
--config; without either, built-in defaults point at a local server.
Prompts for credentials when no session can be restored.

Usage:
  streakmate [flags]

Examples:
  # Connect with an explicit config file
  streakmate --config ~/.config/streakmate.yaml

  # Create an account on first use
  streakmate --register

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// openLogger opens the configured log file and returns a JSON slog
// logger. The TUI owns the terminal, so nothing may log to stderr
// while the program runs.
func openLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(handler), func() { file.Close() }, nil
}

// authenticate restores the saved session if the server still honors
// the refresh credential, and otherwise prompts for login or
// registration on the terminal.
func authenticate(ctx context.Context, manager *auth.Manager, register bool) (*api.User, error) {
	if !register {
		user, err := manager.Restore(ctx)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	stdin := int(os.Stdin.Fd())
	if !term.IsTerminal(stdin) {
		return nil, fmt.Errorf("no terminal available for interactive login")
	}
	reader := bufio.NewReader(os.Stdin)

	email, err := promptLine(reader, "Email: ")
	if err != nil {
		return nil, err
	}

	username := ""
	if register {
		username, err = promptLine(reader, "Username: ")
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	password := string(passwordBytes)

	if register {
		return manager.Register(ctx, email, username, password)
	}
	return manager.Login(ctx, email, password)
}

func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

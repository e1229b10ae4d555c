// Package main provides the entry point for the mull chat interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ai/mull/internal/chat"
	"github.com/ai/mull/internal/logs"
	"github.com/ai/mull/internal/ollama"
	"github.com/ai/mull/internal/repl"
	"github.com/ai/mull/internal/supervisor"
	"github.com/ai/mull/internal/tui"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		useOllama   bool
		plain       bool
		model       string
		system      string
		delay       time.Duration
		noThoughts  bool
		logDir      string
		showVersion bool
	)

	flag.BoolVar(&useOllama, "ollama", false, "Use an Ollama model instead of the built-in mock supervisor")
	flag.BoolVar(&plain, "plain", false, "Line-based interface instead of the full-screen UI")
	flag.StringVar(&model, "model", "", "Ollama model to use (overrides OLLAMA_MODEL)")
	flag.StringVar(&model, "m", "", "Ollama model to use (shorthand)")
	flag.StringVar(&system, "system", "", "System prompt for the Ollama supervisor")
	flag.DurationVar(&delay, "delay", 400*time.Millisecond, "Pause between mock supervisor thoughts")
	flag.BoolVar(&noThoughts, "no-thoughts", false, "Start with thought messages hidden")
	flag.StringVar(&logDir, "log-dir", "", "Base directory for session logs (default: ~/.mull/logs)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `mull - Chat with visible reasoning

A terminal chat interface that streams the assistant's intermediate
thoughts before its final answer. Thoughts can be toggled on and off
without losing them.

Usage:
  mull [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment Variables:
  OLLAMA_HOST       Ollama API base URL (default: http://localhost:11434)
  OLLAMA_MODEL      Default model to use
  OLLAMA_API_KEY    API key for cloud Ollama endpoint
  MULL_NO_THOUGHTS  Start with thoughts hidden (same as -no-thoughts)

Keybindings:
  ESC ESC           Exit (double-press within 600ms)
  Ctrl+T            Toggle thought visibility
  Ctrl+X            Clear the conversation
  Ctrl+L            Show the session log path
  ?                 Toggle help

Commands:
  /thoughts         Toggle thought visibility (or /thoughts on|off)
  /clear            Clear the conversation
  /models           Show model picker
  /ping             Test the model connection
  /logs             Show the session log path
  /quit             Exit

Examples:
  mull                       Chat with the built-in mock supervisor
  mull -ollama               Chat with an Ollama model
  mull -ollama -m qwen3      Use the qwen3 model
  mull -plain                Line-based interface (for pipes and scripts)

For more information: https://github.com/ai/mull
`)
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("mull %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		os.Exit(0)
	}

	if model != "" {
		os.Setenv("OLLAMA_MODEL", model)
	}
	if os.Getenv("MULL_NO_THOUGHTS") != "" {
		noThoughts = true
	}

	ctx := context.Background()

	// Pick the supervisor backend.
	var sup supervisor.Supervisor
	var client *ollama.Client
	if useOllama {
		client = ollama.NewClient()

		if !client.IsAvailable(ctx) {
			fmt.Fprintf(os.Stderr, "Warning: Ollama is not available at %s\n", client.BaseURL())
			fmt.Fprintf(os.Stderr, "         Make sure Ollama is running: ollama serve\n\n")
		} else if client.GetModel() == "" {
			// Auto-select the first available model
			models, err := client.ListModels(ctx)
			if err == nil && len(models) > 0 {
				client.SetModel(models[0].Name)
				fmt.Fprintf(os.Stderr, "Auto-selected model: %s\n\n", models[0].Name)
			}
		}

		sup = supervisor.NewOllama(client, system)
	} else {
		mock := supervisor.NewMock()
		mock.Delay = delay
		sup = mock
	}

	// Session logging
	if logDir == "" {
		logDir = logs.DefaultBaseDir()
	}
	session, err := logs.NewSession(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create session log: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	controller := chat.NewController(chat.Config{
		Supervisor:   sup,
		ShowThoughts: !noThoughts,
		Sink:         session,
	})

	if plain {
		ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		r := repl.New(controller, os.Stdin, os.Stdout, session.Path())
		if err := r.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Session logs saved to:", session.Path())
		return
	}

	m := tui.New(controller, client, session.Path())

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Handle OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Session logs saved to:", session.Path())
}

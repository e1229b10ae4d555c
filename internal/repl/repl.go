// Package repl provides a plain line-based front-end for terminals where
// the full-screen UI is unwanted, such as pipes and dumb terminals.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ai/mull/internal/bridge"
	"github.com/ai/mull/internal/chat"
)

var (
	thoughtStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	answerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// REPL reads inputs line by line and prints each run's thoughts and answer
// as they arrive.
type REPL struct {
	controller  *chat.Controller
	in          io.Reader
	out         io.Writer
	sessionPath string
}

func New(controller *chat.Controller, in io.Reader, out io.Writer, sessionPath string) *REPL {
	return &REPL{
		controller:  controller,
		in:          in,
		out:         out,
		sessionPath: sessionPath,
	}
}

// Run loops until the input is exhausted, the user quits, or ctx is
// cancelled.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)

	fmt.Fprintln(r.out, "Type a message, or /help for commands.")

	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.execute(line); quit {
				return nil
			}
			continue
		}

		if err := r.exchange(ctx, line); err != nil {
			return err
		}
	}
}

// execute runs a slash command. It reports true when the user asked to
// quit.
func (r *REPL) execute(line string) bool {
	parts := strings.Fields(line)

	switch parts[0] {
	case "/thoughts", "/t":
		show := !r.controller.ShowThoughts()
		if len(parts) > 1 {
			switch parts[1] {
			case "on":
				show = true
			case "off":
				show = false
			default:
				fmt.Fprintln(r.out, "usage: /thoughts [on|off]")
				return false
			}
		}
		r.controller.SetShowThoughts(show)
		if show {
			fmt.Fprintln(r.out, "thoughts visible")
		} else {
			fmt.Fprintln(r.out, "thoughts hidden")
		}

	case "/clear":
		r.controller.Clear()
		fmt.Fprintln(r.out, "conversation cleared")

	case "/logs":
		fmt.Fprintln(r.out, "logs:", r.sessionPath)

	case "/help", "/h", "/?":
		fmt.Fprintln(r.out, "commands:")
		fmt.Fprintln(r.out, "  /thoughts [on|off]  toggle thought visibility")
		fmt.Fprintln(r.out, "  /clear              clear the conversation")
		fmt.Fprintln(r.out, "  /logs               show the session log path")
		fmt.Fprintln(r.out, "  /quit               exit")

	case "/quit", "/q", "/exit":
		return true

	default:
		fmt.Fprintln(r.out, "unknown command:", parts[0])
	}

	return false
}

// exchange submits one input and prints the run's events until it is done.
func (r *REPL) exchange(ctx context.Context, input string) error {
	if !r.controller.Submit(ctx, input) {
		return nil
	}

	for ev := range r.controller.Events() {
		r.controller.Apply(ev)

		switch ev.Kind {
		case bridge.EventThought:
			if r.controller.ShowThoughts() {
				fmt.Fprintln(r.out, thoughtStyle.Render("• "+ev.Text))
			}
		case bridge.EventAnswer:
			fmt.Fprintln(r.out, answerStyle.Render(ev.Text))
		case bridge.EventError:
			fmt.Fprintln(r.out, errorStyle.Render("error: "+ev.Err.Error()))
		}
	}

	return ctx.Err()
}

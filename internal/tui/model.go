// Package tui provides the terminal user interface using Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ai/mull/internal/bridge"
	"github.com/ai/mull/internal/chat"
	"github.com/ai/mull/internal/ollama"
)

// KeyMap defines the keybindings
type KeyMap struct {
	Escape         key.Binding
	ToggleThoughts key.Binding
	ClearChat      key.Binding
	OpenLogs       key.Binding
	Help           key.Binding
	ScrollUp       key.Binding
	ScrollDown     key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "unfocus/exit"),
		),
		ToggleThoughts: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "toggle thoughts"),
		),
		ClearChat: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear chat"),
		),
		OpenLogs: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "show log path"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Escape, k.ToggleThoughts, k.Help}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Escape, k.ToggleThoughts, k.ClearChat, k.OpenLogs, k.Help},
		{k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown},
	}
}

// Command represents an available slash command
type Command struct {
	Name        string
	Description string
	NeedsArg    bool
}

// AvailableCommands returns all available slash commands
func AvailableCommands() []Command {
	return []Command{
		{Name: "/thoughts", Description: "Toggle thought visibility: on|off", NeedsArg: false},
		{Name: "/clear", Description: "Clear the conversation", NeedsArg: false},
		{Name: "/models", Description: "Open model picker", NeedsArg: false},
		{Name: "/ping", Description: "Test the model connection", NeedsArg: false},
		{Name: "/logs", Description: "Show the session log path", NeedsArg: false},
		{Name: "/help", Description: "Show help", NeedsArg: false},
		{Name: "/quit", Description: "Exit", NeedsArg: false},
	}
}

// Model is the main TUI model
type Model struct {
	controller  *chat.Controller
	client      *ollama.Client // nil when running the built-in mock
	sessionPath string

	keyMap        KeyMap
	help          help.Model
	spinner       spinner.Model
	chatView      viewport.Model
	input         textinput.Model
	markdown      *glamour.TermRenderer
	width         int
	height        int
	events        <-chan bridge.Event
	notice        string
	showHelp      bool
	showModels    bool
	showCmdList   bool
	filteredCmds  []Command
	selectedCmd   int
	models        []ollama.ModelInfo
	selectedModel int
	inputFocused  bool
	lastEscTime   time.Time
	quitting      bool
}

// New creates a new TUI model. client may be nil when no Ollama backend is
// in use; model picker and ping are disabled then.
func New(controller *chat.Controller, client *ollama.Client, sessionPath string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Ask something... (Enter to send, / for commands)"
	ti.CharLimit = 1024
	ti.Focus()

	return Model{
		controller:   controller,
		client:       client,
		sessionPath:  sessionPath,
		keyMap:       DefaultKeyMap(),
		help:         help.New(),
		spinner:      s,
		input:        ti,
		inputFocused: true,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
	)
}

// runEventMsg carries one event from the in-flight run
type runEventMsg struct {
	ev bridge.Event
}

// modelsLoadedMsg carries loaded models
type modelsLoadedMsg struct {
	models []ollama.ModelInfo
	err    error
}

// pingMsg carries the result of a connection test
type pingMsg struct {
	model   string
	success bool
	message string
	err     error
}

func listenForRun(events <-chan bridge.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return runEventMsg{ev: ev}
	}
}

func (m Model) fetchModels() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		models, err := m.client.ListModels(ctx)
		return modelsLoadedMsg{models: models, err: err}
	}
}

func (m Model) pingModel() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		model := m.client.GetModel()
		messages := []ollama.Message{
			{Role: "user", Content: "Say 'Hello' in one word."},
		}

		resp, err := m.client.Chat(ctx, messages)
		if err != nil {
			return pingMsg{model: model, success: false, err: err}
		}

		return pingMsg{
			model:   model,
			success: true,
			message: resp.Message.Content,
		}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.markdown = newMarkdownRenderer(m.width)
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runEventMsg:
		m.controller.Apply(msg.ev)
		m.refreshChat()
		// Stop listening after done, or when the run was abandoned by a
		// mid-run clear.
		if msg.ev.Kind == bridge.EventDone || m.events == nil {
			m.events = nil
			return m, nil
		}
		return m, listenForRun(m.events)

	case modelsLoadedMsg:
		if msg.err == nil {
			m.models = msg.models
		} else {
			m.notice = fmt.Sprintf("failed to load models: %v", msg.err)
			m.showModels = false
		}
		return m, nil

	case pingMsg:
		if msg.success {
			m.notice = fmt.Sprintf("model %s OK: %s", msg.model, strings.TrimSpace(msg.message))
		} else {
			m.notice = fmt.Sprintf("model %s failed: %v", msg.model, msg.err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.chatView, cmd = m.chatView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle model picker mode
	if m.showModels {
		switch msg.String() {
		case "esc":
			m.showModels = false
			m.inputFocused = true
			m.input.Focus()
			return m, textinput.Blink
		case "enter":
			if m.selectedModel < len(m.models) {
				selectedName := m.models[m.selectedModel].Name
				m.client.SetModel(selectedName)
				m.notice = "model changed to " + selectedName
			}
			m.showModels = false
			m.inputFocused = true
			m.input.Focus()
			return m, textinput.Blink
		case "up", "k":
			if m.selectedModel > 0 {
				m.selectedModel--
			}
			return m, nil
		case "down", "j":
			if m.selectedModel < len(m.models)-1 {
				m.selectedModel++
			}
			return m, nil
		}
		return m, nil
	}

	// Handle input when focused
	if m.inputFocused {
		switch msg.String() {
		case "esc":
			return m.handleEscape()
		case "ctrl+t":
			return m.toggleThoughts()
		case "ctrl+x":
			return m.clearChat()
		case "ctrl+l":
			m.notice = "logs: " + m.sessionPath
			return m, nil
		case "tab":
			// Autocomplete selected command
			if m.showCmdList && len(m.filteredCmds) > 0 {
				cmd := m.filteredCmds[m.selectedCmd]
				m.input.SetValue(cmd.Name)
				m.input.SetCursor(len(cmd.Name))
				m.filteredCmds = filterCommands(m.input.Value())
				return m, nil
			}
			m.inputFocused = false
			m.showCmdList = false
			m.input.Blur()
			return m, nil
		case "up":
			if m.showCmdList && len(m.filteredCmds) > 0 {
				if m.selectedCmd > 0 {
					m.selectedCmd--
				} else {
					m.selectedCmd = len(m.filteredCmds) - 1
				}
				return m, nil
			}
			return m, nil
		case "down":
			if m.showCmdList && len(m.filteredCmds) > 0 {
				if m.selectedCmd < len(m.filteredCmds)-1 {
					m.selectedCmd++
				} else {
					m.selectedCmd = 0
				}
				return m, nil
			}
			return m, nil
		case "enter":
			if m.showCmdList && len(m.filteredCmds) > 0 {
				selected := m.filteredCmds[m.selectedCmd]
				m.input.Reset()
				m.showCmdList = false
				m.selectedCmd = 0
				return m.executeCommand(selected.Name)
			}

			inputVal := m.input.Value()
			m.input.Reset()
			m.showCmdList = false
			m.selectedCmd = 0

			if strings.HasPrefix(inputVal, "/") {
				return m.executeCommand(inputVal)
			}
			return m.submit(inputVal)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			newInput := m.input.Value()
			if strings.HasPrefix(newInput, "/") {
				m.showCmdList = true
				m.filteredCmds = filterCommands(newInput)
				m.selectedCmd = 0
			} else {
				m.showCmdList = false
			}
			return m, cmd
		}
	}

	// Normal mode keybindings
	switch {
	case key.Matches(msg, m.keyMap.Escape):
		return m.handleEscape()

	case key.Matches(msg, m.keyMap.ToggleThoughts):
		return m.toggleThoughts()

	case key.Matches(msg, m.keyMap.ClearChat):
		return m.clearChat()

	case key.Matches(msg, m.keyMap.OpenLogs):
		m.notice = "logs: " + m.sessionPath
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		if !m.showHelp {
			m.inputFocused = true
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.chatView.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDown):
		m.chatView.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.chatView.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.chatView.HalfViewDown()
		return m, nil
	}

	// Any other key refocuses the input
	m.inputFocused = true
	m.input.Focus()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, tea.Batch(cmd, textinput.Blink)
}

func (m Model) handleEscape() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double ESC (within 600ms) exits
	if now.Sub(m.lastEscTime) < 600*time.Millisecond {
		m.quitting = true
		return m, tea.Quit
	}
	m.lastEscTime = now

	if m.inputFocused {
		m.inputFocused = false
		m.showCmdList = false
		m.input.Blur()
	}
	m.notice = "press ESC again to exit"
	return m, nil
}

func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	if m.controller.Processing() {
		m.notice = "still thinking, hang on"
		return m, nil
	}

	if !m.controller.Submit(context.Background(), input) {
		return m, nil
	}
	m.notice = ""
	m.events = m.controller.Events()
	m.refreshChat()
	return m, listenForRun(m.events)
}

func (m Model) toggleThoughts() (tea.Model, tea.Cmd) {
	if m.controller.ToggleThoughts() {
		m.notice = "thoughts visible"
	} else {
		m.notice = "thoughts hidden"
	}
	m.refreshChat()
	return m, nil
}

func (m Model) clearChat() (tea.Model, tea.Cmd) {
	m.controller.Clear()
	m.events = nil
	m.notice = "conversation cleared"
	m.refreshChat()
	return m, nil
}

func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "/thoughts", "/t":
		if len(parts) > 1 {
			switch parts[1] {
			case "on":
				m.controller.SetShowThoughts(true)
				m.notice = "thoughts visible"
			case "off":
				m.controller.SetShowThoughts(false)
				m.notice = "thoughts hidden"
			default:
				m.notice = "usage: /thoughts [on|off]"
			}
			m.refreshChat()
			return m, nil
		}
		return m.toggleThoughts()

	case "/clear":
		return m.clearChat()

	case "/models", "/m":
		if m.client == nil {
			m.notice = "no model backend in use"
			return m, nil
		}
		m.showModels = true
		m.inputFocused = false
		m.input.Blur()
		return m, m.fetchModels()

	case "/ping":
		if m.client == nil {
			m.notice = "no model backend in use"
			return m, nil
		}
		model := m.client.GetModel()
		if model == "" {
			m.notice = "no model selected, use /models first"
			return m, nil
		}
		m.notice = "testing model " + model + "..."
		return m, m.pingModel()

	case "/logs":
		m.notice = "logs: " + m.sessionPath

	case "/help", "/h", "/?":
		m.showHelp = true
		m.inputFocused = false
		m.input.Blur()

	case "/quit", "/q", "/exit":
		m.quitting = true
		return m, tea.Quit

	default:
		m.notice = "unknown command: " + parts[0]
	}

	return m, nil
}

// refreshChat re-renders the transcript into the viewport and scrolls to
// the bottom.
func (m *Model) refreshChat() {
	m.chatView.SetContent(m.renderTranscript())
	m.chatView.GotoBottom()
}

func (m *Model) updateViewport() {
	headerHeight := 2
	footerHeight := 4 // input + status line
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.chatView = viewport.New(m.width, contentHeight)
	m.refreshChat()
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m Model) renderTranscript() string {
	userStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	thoughtStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	var b strings.Builder
	for _, msg := range m.controller.Visible() {
		switch msg.Kind {
		case chat.KindUser:
			b.WriteString(userStyle.Render("You: "+msg.Text) + "\n\n")
		case chat.KindThought:
			b.WriteString(thoughtStyle.Render("• "+msg.Text) + "\n\n")
		case chat.KindAnswer:
			b.WriteString(m.renderAnswer(msg.Text))
			b.WriteString("\n")
		case chat.KindError:
			b.WriteString(errorStyle.Render("Error: "+msg.Text) + "\n\n")
		}
	}
	return b.String()
}

// renderAnswer renders the answer as markdown, falling back to plain text.
func (m Model) renderAnswer(text string) string {
	if m.markdown != nil {
		if out, err := m.markdown.Render(text); err == nil {
			return out
		}
	}
	return text + "\n"
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.renderHelp())
	} else if m.showModels {
		b.WriteString(m.renderModelPicker())
	} else {
		b.WriteString(m.chatView.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Bold(true).
		Padding(0, 1)

	badgeStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("99")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	title := titleStyle.Render("MULL")

	thoughts := "thoughts: off"
	if m.controller.ShowThoughts() {
		thoughts = "thoughts: on"
	}
	thoughtsStr := badgeStyle.Render(thoughts)

	var modelStr string
	if m.client != nil {
		modelStr = badgeStyle.Render("model: " + m.client.GetModel())
	} else {
		modelStr = badgeStyle.Render("model: mock")
	}

	working := ""
	if m.controller.Processing() {
		working = " " + m.spinner.View() + " thinking"
	}

	left := lipgloss.JoinHorizontal(lipgloss.Left, title, working)
	right := lipgloss.JoinHorizontal(lipgloss.Right, thoughtsStr, " ", modelStr)

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	spacing := m.width - leftWidth - rightWidth
	if spacing < 1 {
		spacing = 1
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, left, strings.Repeat(" ", spacing), right)
}

func (m Model) renderHelp() string {
	helpStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(m.width - 4)

	content := `KEYBINDINGS:
  ESC ESC       Exit (within 600ms)
  Ctrl+T        Toggle thought visibility
  Ctrl+X        Clear the conversation
  Ctrl+L        Show the session log path
  ?             Toggle help

COMMANDS:
  /thoughts     Toggle thought visibility (or /thoughts on|off)
  /clear        Clear the conversation
  /models       Open the model picker
  /ping         Test the model connection
  /logs         Show the session log path
  /quit         Exit

SCROLLING:
  ↑/k           Scroll up
  ↓/j           Scroll down
  PgUp/Ctrl+U   Page up
  PgDn/Ctrl+D   Page down

Press ? to close this help`

	return helpStyle.Render(content)
}

func (m Model) renderModelPicker() string {
	pickerStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(1, 2).
		Width(m.width - 4)

	var content strings.Builder
	content.WriteString("SELECT MODEL\n\n")

	if len(m.models) == 0 {
		content.WriteString("  Loading models...\n")
		content.WriteString("  (Make sure Ollama is running)\n")
	} else {
		currentModel := m.client.GetModel()

		for i, model := range m.models {
			cursor := "  "
			if i == m.selectedModel {
				cursor = "> "
			}

			current := ""
			if model.Name == currentModel {
				current = " ← current"
			}

			content.WriteString(fmt.Sprintf("%s%s%s\n", cursor, model.Name, current))
		}
	}

	content.WriteString("\n↑/↓ navigate | Enter select | ESC cancel")

	return pickerStyle.Render(content.String())
}

func (m Model) renderFooter() string {
	var b strings.Builder

	// Command autocomplete dropdown (above input)
	if m.showCmdList && len(m.filteredCmds) > 0 {
		cmdListStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Width(m.width - 4)

		descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

		var cmdContent strings.Builder
		for i, cmd := range m.filteredCmds {
			cursor := "  "
			if i == m.selectedCmd {
				cursor = "> "
			}
			cmdContent.WriteString(fmt.Sprintf("%s%s  %s\n", cursor, cmd.Name, descStyle.Render(cmd.Description)))
		}
		cmdContent.WriteString("\n↑/↓ navigate | Tab autocomplete | Enter execute")

		b.WriteString(cmdListStyle.Render(cmdContent.String()))
		b.WriteString("\n")
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(m.width - 4)

	if m.inputFocused {
		inputStyle = inputStyle.BorderForeground(lipgloss.Color("205"))
	} else {
		inputStyle = inputStyle.BorderForeground(lipgloss.Color("240"))
	}

	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	left := m.notice
	right := "ESC ESC to exit | Ctrl+T thoughts | ? help"

	leftWidth := len(left)
	rightWidth := len(right)
	spacing := m.width - leftWidth - rightWidth
	if spacing < 1 {
		spacing = 1
	}

	b.WriteString(footerStyle.Render(left + strings.Repeat(" ", spacing) + right))

	return b.String()
}

// filterCommands filters commands based on input prefix
func filterCommands(input string) []Command {
	var filtered []Command
	input = strings.ToLower(input)

	for _, cmd := range AvailableCommands() {
		if strings.HasPrefix(strings.ToLower(cmd.Name), input) {
			filtered = append(filtered, cmd)
		}
	}

	if len(filtered) == 0 && input == "/" {
		return AvailableCommands()
	}

	return filtered
}

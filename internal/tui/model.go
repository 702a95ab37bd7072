// Package tui is the terminal presentation shell of the companion. It renders
// orchestrator snapshots and forwards user intents; it holds no conversation
// state of its own.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-companion/core"
	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/prompts"
)

// Controller is the part of the orchestrator the shell drives.
type Controller interface {
	SubmitUserText(text string)
	ToggleVoiceChat()
	ChangeLanguage(language conversations.Language)
	State() orchestration.State
}

// StateMsg delivers a new orchestrator snapshot to the program.
type StateMsg struct {
	State orchestration.State
}

// StateCallback adapts a program's Send into an orchestrator state callback.
func StateCallback(send func(tea.Msg)) func(orchestration.State) {
	return func(state orchestration.State) { send(StateMsg{State: state}) }
}

const (
	defaultWidth  = 80
	defaultHeight = 24
	headerHeight  = 3
	footerHeight  = 5
)

type Model struct {
	controller Controller
	state      orchestration.State

	keys     keyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	now    func() time.Time
}

func New(controller Controller) Model {
	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 2000
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	m := Model{
		controller: controller,
		state:      controller.State(),
		keys:       defaultKeyMap(),
		help:       help.New(),
		input:      input,
		viewport:   viewport.New(defaultWidth, defaultHeight-headerHeight-footerHeight),
		spinner:    s,
		now:        time.Now,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case StateMsg:
		followTail := m.viewport.AtBottom()
		m.state = msg.State
		m.syncInput()
		m.refreshViewport()
		if followTail {
			m.viewport.GotoBottom()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Send):
			m.send()
			return m, nil

		case key.Matches(msg, m.keys.ToggleVoice):
			if m.state.HasStartedChat() && m.state.SpeechInputAvailable {
				m.controller.ToggleVoiceChat()
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleLanguage):
			m.controller.ChangeLanguage(m.state.Language.Next())
			return m, nil

		case key.Matches(msg, m.keys.Scroll):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		case key.Matches(msg, m.keys.QuickStart) && m.showsWelcome() && m.input.Value() == "":
			m.sendQuickStart(msg.String())
			return m, nil
		}
	}

	if !m.state.VoiceChatActive {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) send() {
	if m.state.VoiceChatActive || m.state.IsLoading {
		return
	}

	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return
	}

	m.controller.SubmitUserText(text)
	m.input.Reset()
}

func (m *Model) sendQuickStart(pressed string) {
	quickStarts := prompts.QuickStarts(m.state.Language)
	index := int(pressed[0] - '1')
	if index < 0 || index >= len(quickStarts) {
		return
	}
	m.controller.SubmitUserText(quickStarts[index].Text)
}

func (m Model) showsWelcome() bool {
	return !m.state.HasStartedChat() && !m.state.IsLoading
}

// syncInput disables typing while voice chat is on.
func (m *Model) syncInput() {
	if m.state.VoiceChatActive {
		m.input.Blur()
		return
	}
	if !m.input.Focused() {
		m.input.Focus()
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.input.Width = max(width-4, 10)
	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight, 3)
}

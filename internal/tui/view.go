package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-companion/core/conversations"
	"github.com/koscakluka/ema-companion/core/prompts"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

func (m Model) View() string {
	text := prompts.Text(m.state.Language)

	var body string
	if m.showsWelcome() {
		body = m.welcomeView(text)
	} else {
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(text),
		body,
		m.statusView(text),
		m.inputView(text),
		m.help.View(m.keys),
	)
}

func (m Model) headerView(text prompts.UIText) string {
	title := titleStyle.Render(prompts.CompanionName)
	details := []string{text.AlwaysHere, fmt.Sprintf("%s: %s", text.Language, prompts.LanguageLabel(m.state.Language))}
	if m.state.SpeechInputAvailable && m.state.HasStartedChat() {
		if m.state.VoiceChatActive {
			details = append(details, text.EndCall+" (ctrl+v)")
		} else {
			details = append(details, text.StartCall+" (ctrl+v)")
		}
	}
	return headerStyle.Width(m.width).Render(title + "  " + subtitleStyle.Render(strings.Join(details, " · ")))
}

func (m Model) welcomeView(text prompts.UIText) string {
	width := m.contentWidth()
	lines := []string{
		titleStyle.Render(prompts.Greeting(m.state.Language, m.now())),
		"",
		titleStyle.Render(text.ImAayu),
		wrapText(text.WelcomeMessage, width),
		"",
		subtitleStyle.Render(text.HowAreYouFeeling),
	}
	for i, quickStart := range prompts.QuickStarts(m.state.Language) {
		line := fmt.Sprintf("%d  %s %s", i+1, quickStart.Icon, quickStart.Text)
		lines = append(lines, quickStartStyle.Render(wrapText(line, width-4)))
	}
	lines = append(lines, "", subtitleStyle.Render(wrapText(text.PrivacyNotice, width)))

	return lipgloss.NewStyle().Height(m.viewport.Height).MaxHeight(m.viewport.Height).Render(strings.Join(lines, "\n"))
}

func (m *Model) refreshViewport() {
	width := m.contentWidth()
	rendered := make([]string, 0, len(m.state.Messages))
	for _, msg := range m.state.Messages {
		if msg.Text == "" {
			continue
		}
		rendered = append(rendered, renderMessage(msg, width))
	}
	m.viewport.SetContent(strings.Join(rendered, "\n\n"))
}

func renderMessage(msg conversations.Message, width int) string {
	label := userLabelStyle.Render("You")
	if msg.IsFromCompanion() {
		label = companionLabelStyle.Render(prompts.CompanionName)
	}

	text := wrapText(msg.Text, width)
	if msg.IsError {
		text = errorMessageStyle.Render(text)
	}
	return label + "\n" + text
}

// statusView is the line between the conversation and the input.
func (m Model) statusView(text prompts.UIText) string {
	state := m.state
	switch {
	case state.ShowError():
		return bannerStyle.Render(wrapText(state.LastError, m.contentWidth()))
	case state.ShowLoading():
		return m.spinner.View() + " "
	case state.VoiceChatActive && state.IsSpeaking:
		return statusStyle.Render("♪ " + prompts.CompanionName)
	case state.VoiceChatActive && state.IsListening:
		return statusStyle.Render(text.Listening)
	case state.VoiceChatActive:
		return statusStyle.Render(text.VoiceChatActive)
	}
	return ""
}

func (m Model) inputView(text prompts.UIText) string {
	switch {
	case m.state.VoiceChatActive:
		return subtitleStyle.Render(text.VoiceChatActive)
	case m.showsWelcome():
		m.input.Placeholder = text.StartConversation
	default:
		m.input.Placeholder = text.ShareWhatsOnYourMind
	}
	return m.input.View()
}

func (m Model) contentWidth() int {
	return max(m.width-2, 20)
}

// wrapText wraps on word boundaries and hard-wraps words longer than width.
func wrapText(text string, width int) string {
	return wrap.String(wordwrap.String(text, width), width)
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) setLogs(msg logsMsg) {
	if msg.err != nil {
		m.setFlash("could not read log: "+msg.err.Error(), true)
		return
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(msg.entries))
	for _, e := range msg.entries {
		lines = append(lines, levelStyle(e.Level, styles).Render(e.String()))
	}
	if len(lines) == 0 {
		lines = append(lines, styles.MutedText.Render("log is empty"))
	}
	m.logs.SetContent(strings.Join(lines, "\n"))
	m.logs.GotoBottom()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.Header.Width(m.width).Render(
		styles.Logo.Render("log") + "  " + styles.MutedText.Render(truncate(m.logPath, max(m.width-10, 10))))
	status := styles.Footer.Width(m.width).Render("esc back  r reload  g/G top/bottom")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.logs.View(), status)
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "INFO":
		return styles.Text
	case "WARN":
		return styles.WarningText
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.MutedText
	}
}

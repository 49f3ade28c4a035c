package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/coreview/internal/collab"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.deps.Workspace.Snapshot()

	title := m.styles.title.Render("coreview") + m.styles.dim.Render(st.Mode.Label()+" · "+string(st.Language))

	editorPane := m.styles.focused
	rightPane := m.styles.pane
	if m.panel != panelResult {
		editorPane, rightPane = m.styles.pane, m.styles.focused
	}
	var right string
	if m.panel == panelHistory {
		right = m.historyView()
	} else {
		right = m.result.View()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		editorPane.Render(m.editor.View()),
		rightPane.Width(m.result.Width).Height(m.result.Height).Render(right),
	)

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	switch {
	case m.panel == panelJoin:
		b.WriteString("Join room: " + m.join.View())
	case m.panel == panelHistory:
		b.WriteString(m.styles.help.Render(historyHelp))
	case m.notice != "":
		b.WriteString(m.styles.notice.Render(m.notice))
	default:
		b.WriteString(m.styles.help.Render(helpLine))
	}
	return b.String()
}

func (m Model) statusView() string {
	st := m.deps.Workspace.Snapshot()
	parts := []string{}

	if ch := m.deps.Channel; ch != nil {
		room := ch.Room()
		if room == "" {
			room = "none"
		}
		state := ch.State()
		stateText := state.String()
		switch state {
		case collab.Connected:
			stateText = m.styles.connected.Render(stateText)
		case collab.Error:
			stateText = m.styles.problem.Render(stateText)
		}
		parts = append(parts,
			"Room: "+room,
			stateText,
			fmt.Sprintf("%d participants", ch.Participants()),
		)
	} else {
		parts = append(parts, "offline")
	}

	parts = append(parts, "Mode: "+st.Mode.Label(), "Language: "+string(st.Language))
	if m.loading {
		parts = append(parts, m.spinner.View()+" Loading...")
	}
	return m.styles.status.Width(m.width).Render(strings.Join(parts, " │ "))
}

func (m Model) historyView() string {
	entries := m.deps.History.List()
	if len(entries) == 0 {
		return m.styles.dim.Render("No history yet.")
	}
	var b strings.Builder
	for i, e := range entries {
		if i >= m.result.Height {
			break
		}
		line := fmt.Sprintf("%s  %-8s %-10s %s", e.Time, e.Mode.Label(), e.Language, firstLine(e.Code, m.result.Width-34))
		if i == m.cursor {
			line = m.styles.selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func firstLine(s string, width int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if width < 4 {
		width = 4
	}
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

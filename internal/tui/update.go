package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dshills/coreview/internal/collab"
	"github.com/dshills/coreview/internal/orchestrator"
	"github.com/dshills/coreview/internal/output"
	"github.com/dshills/coreview/internal/snippet"
	"go.uber.org/zap"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.rendered = ""
		m.syncFromWorkspace()
		return m, nil

	case collabMsg:
		m.handleEvent(collab.Event(msg))
		return m, m.waitEvent()

	case reviewDoneMsg:
		m.loading = false
		if msg.ok {
			switch {
			case msg.outcome.Stale:
				m.notice = "Result discarded: the session changed while loading"
			case msg.outcome.Err != nil:
				m.notice = "Review failed: " + msg.outcome.Err.Error()
			default:
				m.notice = ""
			}
		}
		m.syncFromWorkspace()
		return m, nil

	case roomMsg:
		switch {
		case errors.Is(msg.err, collab.ErrSuperseded):
		case msg.err != nil:
			m.notice = msg.err.Error()
		default:
			m.notice = "Joined room " + msg.room
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == keyQuit {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.panel {
	case panelJoin:
		return m.updateJoin(msg)
	case panelHistory:
		if key != keyHistory {
			return m.updateHistory(msg)
		}
	}

	ws := m.deps.Workspace
	switch key {
	case keySubmit:
		if m.loading || m.deps.Orchestrator.Status() == orchestrator.Loading {
			return m, nil
		}
		if isBlank(ws.Snapshot().Code) {
			return m, nil
		}
		m.loading = true
		m.notice = ""
		return m, tea.Batch(m.submit(), m.spinner.Tick)

	case keyMode:
		ws.SetMode(ws.Snapshot().Mode.Next())
		return m, nil

	case keyLanguage:
		ws.SetLanguage(ws.Snapshot().Language.Next())
		return m, nil

	case keyNewRoom:
		if m.deps.Channel == nil {
			m.notice = "Collaboration unavailable: no server configured"
			return m, nil
		}
		m.notice = "Creating room..."
		return m, m.joinRoom("")

	case keyJoinRoom:
		if m.deps.Channel == nil {
			m.notice = "Collaboration unavailable: no server configured"
			return m, nil
		}
		m.panel = panelJoin
		m.join.SetValue("")
		m.join.Focus()
		m.editor.Blur()
		return m, textinput.Blink

	case keyLeave:
		if m.deps.Channel != nil {
			m.deps.Channel.LeaveRoom()
			m.notice = "Left room"
		}
		return m, nil

	case keyHistory:
		if m.panel == panelHistory {
			m.panel = panelResult
			m.editor.Focus()
			return m, nil
		}
		m.panel = panelHistory
		m.cursor = 0
		m.editor.Blur()
		return m, nil

	case keyShare:
		u, err := snippet.ShareURL(m.deps.ShareBase, ws.Snippet())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = "Share: " + u
		m.log.Info("share url", zap.String("url", u))
		return m, nil

	case keyTheme:
		m.theme = m.theme.Toggle()
		m.styles = stylesFor(m.theme)
		if err := SaveTheme(m.deps.Durable, m.theme); err != nil {
			m.log.Warn("saving theme", zap.Error(err))
		}
		m.rendered = ""
		m.syncFromWorkspace()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if v := m.editor.Value(); v != m.lastCode {
		m.lastCode = v
		ws.Edit(v)
	}
	return m, cmd
}

func (m Model) updateJoin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeJoin()
		return m, nil
	case "enter":
		id := m.join.Value()
		m.closeJoin()
		if isBlank(id) {
			return m, nil
		}
		m.notice = "Joining " + id + "..."
		return m, m.joinRoom(id)
	}
	var cmd tea.Cmd
	m.join, cmd = m.join.Update(msg)
	return m, cmd
}

func (m *Model) closeJoin() {
	m.panel = panelResult
	m.join.Blur()
	m.editor.Focus()
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.deps.History.List()
	switch msg.String() {
	case "esc":
		m.panel = panelResult
		m.editor.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(entries) {
			m.deps.Workspace.Restore(entries[m.cursor])
			m.panel = panelResult
			m.editor.Focus()
			m.syncFromWorkspace()
		}
	case "x":
		if err := m.deps.History.Clear(); err != nil {
			m.notice = "Clearing history: " + err.Error()
		}
		m.cursor = 0
	}
	return m, nil
}

func (m *Model) handleEvent(ev collab.Event) {
	switch ev.Kind {
	case collab.EventUpdate:
		if m.deps.Workspace.ApplyRemote(ev.Code, ev.Language) {
			m.syncFromWorkspace()
		}
	case collab.EventState:
		if ev.State == collab.Error && ev.Err != nil {
			m.notice = fmt.Sprintf("Connection error: %v", ev.Err)
		}
	}
}

// syncFromWorkspace copies workspace state into the widgets.
func (m *Model) syncFromWorkspace() {
	st := m.deps.Workspace.Snapshot()
	if st.Code != m.editor.Value() {
		m.editor.SetValue(st.Code)
	}
	m.lastCode = st.Code

	if st.Result == m.rendered && m.rendered != "" {
		return
	}
	m.rendered = st.Result
	content := st.Result
	if content == "" {
		content = m.styles.dim.Render("Results appear here.")
	} else if r, err := output.RenderMarkdown(content, m.result.Width, string(m.theme)); err == nil {
		content = r
	}
	m.result.SetContent(content)
	m.result.GotoTop()
}

func (m *Model) layout() {
	// title, status, help and notice lines plus pane borders
	body := m.height - 6
	if body < 3 {
		body = 3
	}
	left := m.width / 2
	right := m.width - left
	m.editor.SetWidth(max(left-2, 10))
	m.editor.SetHeight(body)
	m.result.Width = max(right-2, 10)
	m.result.Height = body
	m.join.Width = max(m.width-20, 10)
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

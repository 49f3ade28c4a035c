package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dshills/coreview/internal/collab"
	"github.com/dshills/coreview/internal/history"
	"github.com/dshills/coreview/internal/orchestrator"
	"github.com/dshills/coreview/internal/storage"
	"github.com/dshills/coreview/internal/workspace"
	"go.uber.org/zap"
)

const joinTimeout = 10 * time.Second

// Deps are the collaborators the editor drives.
type Deps struct {
	Workspace    *workspace.Workspace
	Orchestrator *orchestrator.Orchestrator
	History      *history.Store
	// Channel is nil when no relay server is configured.
	Channel *collab.Channel
	// Durable holds the theme. Nil keeps it in memory only.
	Durable   storage.Store
	ShareBase string
	Logger    *zap.Logger
}

// Messages delivered to Update.
type (
	collabMsg     collab.Event
	reviewDoneMsg struct {
		outcome orchestrator.Outcome
		ok      bool
	}
	roomMsg struct {
		room string
		err  error
	}
)

type panel int

const (
	panelResult panel = iota
	panelHistory
	panelJoin
)

// Model is the bubbletea model for the editor.
type Model struct {
	ctx  context.Context
	deps Deps
	log  *zap.Logger

	editor   textarea.Model
	result   viewport.Model
	join     textinput.Model
	spinner  spinner.Model
	panel    panel
	cursor   int // history selection
	theme    Theme
	styles   styles
	width    int
	height   int
	loading  bool
	notice   string
	rendered string // result text currently in the viewport
	lastCode string
	quitting bool
}

// New builds the model. ctx bounds the blocking commands it issues.
func New(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ed := textarea.New()
	ed.Placeholder = "Paste or type code, then ctrl+s"
	ed.ShowLineNumbers = true
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.Focus()

	ji := textinput.New()
	ji.Placeholder = "room id"
	ji.CharLimit = 32

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	theme := LoadTheme(deps.Durable)
	m := Model{
		ctx:     ctx,
		deps:    deps,
		log:     logger,
		editor:  ed,
		result:  viewport.New(40, 10),
		join:    ji,
		spinner: sp,
		theme:   theme,
		styles:  stylesFor(theme),
		width:   100,
		height:  30,
	}
	m.layout()
	m.syncFromWorkspace()
	return m
}

// Init starts listening for collaboration events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitEvent())
}

func (m Model) waitEvent() tea.Cmd {
	if m.deps.Channel == nil {
		return nil
	}
	events := m.deps.Channel.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return collabMsg(ev)
	}
}

func (m Model) submit() tea.Cmd {
	o := m.deps.Orchestrator
	ctx := m.ctx
	return func() tea.Msg {
		out, ok := o.SubmitCurrent(ctx)
		return reviewDoneMsg{outcome: out, ok: ok}
	}
}

func (m Model) joinRoom(id string) tea.Cmd {
	ch := m.deps.Channel
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, joinTimeout)
		defer cancel()
		if id == "" {
			room, err := ch.CreateRoom(ctx)
			return roomMsg{room: room, err: err}
		}
		return roomMsg{room: id, err: ch.JoinRoom(ctx, id)}
	}
}

// Run starts the editor and blocks until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Package ui is the Bubble Tea order board.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/prefs"
	"github.com/frer-max/fassr/internal/state"
)

// Refresher forces a reload of one kind.
type Refresher interface {
	Ensure(ctx context.Context, kind state.Kind, force bool) error
}

// Pager loads and searches the order list.
type Pager interface {
	LoadMore(ctx context.Context) error
	Search(ctx context.Context, q string) error
	Query() string
}

// Mutations are the writes the board can start.
type Mutations interface {
	UpdateStatus(ctx context.Context, id int64, next api.OrderStatus) (api.Order, error)
	MarkRatingSeen(ctx context.Context, id int64) (api.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// Connection reports whether the update stream is live.
type Connection interface {
	Connected() bool
}

// View represents the current active view.
type View int

const (
	ViewBoard View = iota
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Store        *state.Store
	Loader       Refresher
	Pager        Pager
	Mutations    Mutations
	Stream       Connection
	LogPath      string
	ThemeName    string
	StatusFilter string
	PrefsPath    string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Wiring
	ctx       context.Context
	store     *state.Store
	loader    Refresher
	pager     Pager
	mutations Mutations
	stream    Connection
	changes   <-chan struct{}
	logPath   string
	prefsPath string

	// UI state
	keys     keyMap
	help     help.Model
	theme    Theme
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool
	now      time.Time

	// Data state
	orders   []api.Order
	settings api.Settings
	cursor   api.Pagination
	status   state.Status

	// Board state
	filter     Filter
	selectedID int64
	selected   int
	loading    bool

	// Search
	searching bool
	search    textinput.Model

	// Detail and logs
	detail viewport.Model
	logs   viewport.Model

	// Footer message
	flash    string
	flashErr bool
	flashAt  time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	search := textinput.New()
	search.Placeholder = "name, phone or order number"
	search.Prompt = "/ "
	search.CharLimit = 64

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		loader:    opts.Loader,
		pager:     opts.Pager,
		mutations: opts.Mutations,
		stream:    opts.Stream,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     GetTheme(themeName),
		filter:    ParseFilter(opts.StatusFilter),
		search:    search,
		now:       time.Now(),
	}
	if m.pager != nil {
		m.search.SetValue(m.pager.Query())
	}
	m.pullSnapshot()
	return m
}

// Run starts the program and blocks until the user quits or the context
// ends.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	changes, unsubscribe := opts.Store.Subscribe(state.Orders, state.Settings)
	defer unsubscribe()

	model := New(opts)
	model.changes = changes
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(DefaultUIInterval), waitForChange(m.changes))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.detail = viewport.New(0, 0)
			m.logs = viewport.New(0, 0)
		}
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		if m.flash != "" && m.now.Sub(m.flashAt) > FlashDuration {
			m.flash = ""
		}
		return m, tickCmd(DefaultUIInterval)

	case storeChangedMsg:
		m.pullSnapshot()
		return m, waitForChange(m.changes)

	case resultMsg:
		if msg.loading {
			m.loading = false
		}
		m.setResult(msg)
		return m, nil

	case logsMsg:
		m.setLogs(msg)
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.view == ViewLogs {
		return m.renderLogs()
	}
	return m.renderBoard()
}

// pullSnapshot copies the store state into the model and keeps the
// selection on the same order when it is still visible.
func (m *Model) pullSnapshot() {
	if m.store == nil {
		return
	}
	m.orders = m.store.Orders()
	m.settings = m.store.Settings()
	m.cursor = m.store.Cursor()
	m.status = m.store.Status(state.Orders)
	m.reselect()
}

func (m *Model) reselect() {
	visible := m.visible()
	if len(visible) == 0 {
		m.selected = 0
		m.selectedID = 0
		m.updateDetail()
		return
	}
	for i, o := range visible {
		if o.ID == m.selectedID && o.ID != 0 {
			m.selected = i
			m.updateDetail()
			return
		}
	}
	m.selected = min(max(m.selected, 0), len(visible)-1)
	m.selectedID = visible[m.selected].ID
	m.updateDetail()
}

func (m Model) visible() []api.Order {
	return applyFilter(m.orders, m.filter)
}

func (m Model) current() (api.Order, bool) {
	visible := m.visible()
	if m.selected < 0 || m.selected >= len(visible) {
		return api.Order{}, false
	}
	return visible[m.selected], true
}

func (m *Model) move(delta int) {
	visible := m.visible()
	if len(visible) == 0 {
		return
	}
	m.selected = min(max(m.selected+delta, 0), len(visible)-1)
	m.selectedID = visible[m.selected].ID
	m.updateDetail()
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashAt = m.now
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, StatusFilter: string(m.filter)}); err != nil {
		m.setFlash("could not save preferences: "+err.Error(), true)
	}
}

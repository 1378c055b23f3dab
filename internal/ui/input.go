package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/frer-max/fassr/internal/api"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && (msg.String() == "ctrl+c" || !m.searching) {
		return m, tea.Quit
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Escape) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.ToggleLogs):
		if m.view == ViewLogs {
			m.view = ViewBoard
			return m, nil
		}
		m.view = ViewLogs
		return m, loadLogsCmd(m.logPath)
	}

	if m.view == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleBoardKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.search.Blur()
		if m.pager != nil {
			m.search.SetValue(m.pager.Query())
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.search.Blur()
		m.loading = true
		return m, m.searchCmd(m.search.Value())
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.view = ViewBoard
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, loadLogsCmd(m.logPath)
	case key.Matches(msg, m.keys.Top):
		m.logs.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logs, cmd = m.logs.Update(msg)
	return m, cmd
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.orders))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.orders))
	case key.Matches(msg, m.keys.NextFilter):
		m.setFilter(m.filter.next(1))
	case key.Matches(msg, m.keys.PrevFilter):
		m.setFilter(m.filter.next(-1))
	case key.Matches(msg, m.keys.Escape):
		if m.pager != nil && m.pager.Query() != "" {
			m.search.SetValue("")
			m.loading = true
			return m, m.searchCmd("")
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.LoadMore):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.loadMoreCmd()
	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Advance):
		return m.stepStatus(api.OrderStatus.Next)
	case key.Matches(msg, m.keys.Back):
		return m.stepStatus(api.OrderStatus.Previous)
	case key.Matches(msg, m.keys.Cancel):
		o, ok := m.current()
		if !ok {
			return m, nil
		}
		if !o.Status.CanTransition(api.StatusCancelled) {
			m.setFlash("order #"+itoa(o.ID)+" can no longer be cancelled", true)
			return m, nil
		}
		return m, m.updateStatusCmd(o, api.StatusCancelled)
	case key.Matches(msg, m.keys.Delete):
		if o, ok := m.current(); ok {
			return m, m.deleteCmd(o)
		}
	case key.Matches(msg, m.keys.RatingSeen):
		o, ok := m.current()
		if !ok || o.Rating == nil || o.RatingSeen {
			return m, nil
		}
		return m, m.ratingSeenCmd(o)
	default:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) stepStatus(step func(api.OrderStatus) (api.OrderStatus, bool)) (tea.Model, tea.Cmd) {
	o, ok := m.current()
	if !ok {
		return m, nil
	}
	next, ok := step(o.Status)
	if !ok {
		m.setFlash("order #"+itoa(o.ID)+" is "+string(o.Status), false)
		return m, nil
	}
	return m, m.updateStatusCmd(o, next)
}

func (m *Model) setFilter(f Filter) {
	if f == m.filter {
		return
	}
	m.filter = f
	m.selected = 0
	m.selectedID = 0
	m.reselect()
	m.savePrefs()
}

func (m *Model) setResult(msg resultMsg) {
	if msg.err != nil {
		m.setFlash(describeError(msg.action, msg.err), true)
		return
	}
	m.setFlash(msg.action, false)
}

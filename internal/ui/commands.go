package ui

import (
	"context"
	"errors"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/logging"
	"github.com/frer-max/fassr/internal/pager"
	"github.com/frer-max/fassr/internal/state"
)

// refreshKinds are reloaded by the refresh key.
var refreshKinds = []state.Kind{state.Orders, state.Settings}

type tickMsg time.Time

type storeChangedMsg struct{}

// resultMsg reports a finished action started from the keyboard.
type resultMsg struct {
	action  string
	err     error
	loading bool
}

type logsMsg struct {
	entries []logging.Entry
	err     error
}

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForChange blocks on the store subscription. A closed or nil channel
// ends the loop.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// action runs fn off the update loop with a bounded context.
func (m Model) action(label string, loading bool, fn func(ctx context.Context) error) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		return resultMsg{action: label, err: fn(ctx), loading: loading}
	}
}

func (m Model) updateStatusCmd(o api.Order, next api.OrderStatus) tea.Cmd {
	if m.mutations == nil {
		return nil
	}
	label := "order #" + itoa(o.ID) + " " + string(next)
	return m.action(label, false, func(ctx context.Context) error {
		_, err := m.mutations.UpdateStatus(ctx, o.ID, next)
		return err
	})
}

func (m Model) ratingSeenCmd(o api.Order) tea.Cmd {
	if m.mutations == nil {
		return nil
	}
	return m.action("rating of #"+itoa(o.ID)+" seen", false, func(ctx context.Context) error {
		_, err := m.mutations.MarkRatingSeen(ctx, o.ID)
		return err
	})
}

func (m Model) deleteCmd(o api.Order) tea.Cmd {
	if m.mutations == nil {
		return nil
	}
	return m.action("order #"+itoa(o.ID)+" deleted", false, func(ctx context.Context) error {
		return m.mutations.DeleteOrder(ctx, o.ID)
	})
}

func (m Model) loadMoreCmd() tea.Cmd {
	if m.pager == nil {
		return nil
	}
	return m.action("more orders loaded", true, m.pager.LoadMore)
}

func (m Model) searchCmd(q string) tea.Cmd {
	if m.pager == nil {
		return nil
	}
	label := "search cleared"
	if q != "" {
		label = "search: " + q
	}
	return m.action(label, true, func(ctx context.Context) error {
		return m.pager.Search(ctx, q)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	return m.action("refreshed", true, func(ctx context.Context) error {
		var errs []error
		for _, kind := range refreshKinds {
			if err := m.loader.Ensure(ctx, kind, true); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logging.Tail(path, LogTailLines)
		return logsMsg{entries: entries, err: err}
	}
}

// describeError turns a failed action into a footer message.
func describeError(action string, err error) string {
	switch {
	case errors.Is(err, pager.ErrNoMorePages):
		return "no more orders"
	case errors.Is(err, pager.ErrListChanged):
		return "list refreshed, load more again"
	case errors.Is(err, api.ErrUnauthorized):
		return "session expired: check the API token"
	case errors.Is(err, api.ErrInvalidTransition):
		return "that status change is not allowed"
	case errors.Is(err, api.ErrNetwork):
		return action + " failed: server unreachable"
	case errors.Is(err, context.DeadlineExceeded):
		return action + " timed out"
	}
	return action + " failed: " + err.Error()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/pager"
	"github.com/frer-max/fassr/internal/prefs"
	"github.com/frer-max/fassr/internal/state"
)

type statusCall struct {
	id   int64
	next api.OrderStatus
}

type fakeMutations struct {
	mu      sync.Mutex
	updates []statusCall
	seen    []int64
	deleted []int64
	err     error
}

func (f *fakeMutations) UpdateStatus(_ context.Context, id int64, next api.OrderStatus) (api.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusCall{id, next})
	return api.Order{ID: id, Status: next}, f.err
}

func (f *fakeMutations) MarkRatingSeen(_ context.Context, id int64) (api.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	return api.Order{ID: id, RatingSeen: true}, f.err
}

func (f *fakeMutations) DeleteOrder(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakePager struct {
	query    string
	loadErr  error
	searches []string
}

func (p *fakePager) LoadMore(context.Context) error { return p.loadErr }

func (p *fakePager) Search(_ context.Context, q string) error {
	p.searches = append(p.searches, q)
	p.query = q
	return nil
}

func (p *fakePager) Query() string { return p.query }

type fixedConnection bool

func (c fixedConnection) Connected() bool { return bool(c) }

func newTestModel(t *testing.T, orders []api.Order, settings api.Settings) (Model, *fakeMutations, *fakePager, string) {
	t.Helper()
	store := state.New(nil, nil)
	store.SetOrderPage(orders, api.NewPagination(len(orders)+5, 1, 20))
	store.SetSettings(settings)
	muts := &fakeMutations{}
	pg := &fakePager{}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{
		Store:     store,
		Pager:     pg,
		Mutations: muts,
		Stream:    fixedConnection(true),
		PrefsPath: prefsPath,
	})
	model, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return model.(Model), muts, pg, prefsPath
}

func sampleOrders() []api.Order {
	now := time.Now()
	rating := 4
	return []api.Order{
		{ID: 3, Status: api.StatusNew, Items: []api.OrderItem{{Name: "Tacos", Quantity: 2, Price: 350}}, Total: 700, CreatedAt: now},
		{ID: 2, Status: api.StatusReady, Items: []api.OrderItem{{Name: "Soup", Quantity: 1, Price: 200}}, Total: 200, CreatedAt: now.Add(-time.Minute)},
		{ID: 1, Status: api.StatusDelivered, Rating: &rating, Total: 100, CreatedAt: now.Add(-time.Hour)},
	}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and runs the returned command once, feeding its result
// back into the model.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	model, cmd := m.Update(msg)
	m = model.(Model)
	if cmd == nil {
		return m
	}
	if out := cmd(); out != nil {
		if _, ok := out.(resultMsg); ok {
			model, _ = m.Update(out)
			m = model.(Model)
		}
	}
	return m
}

// send delivers msg and drops the returned command.
func send(m Model, msg tea.Msg) Model {
	model, _ := m.Update(msg)
	return model.(Model)
}

func TestAdvanceAndBackOnSelectedOrder(t *testing.T) {
	m, muts, _, _ := newTestModel(t, sampleOrders(), api.Settings{})

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runeKey("j"))
	m = press(t, m, runeKey("b"))

	want := []statusCall{{3, api.StatusPreparing}, {2, api.StatusPreparing}}
	if len(muts.updates) != len(want) {
		t.Fatalf("updates = %#v, want %#v", muts.updates, want)
	}
	for i := range want {
		if muts.updates[i] != want[i] {
			t.Fatalf("update %d = %#v, want %#v", i, muts.updates[i], want[i])
		}
	}
	if m.flashErr || !strings.Contains(m.flash, "preparing") {
		t.Fatalf("flash = %q (err=%v)", m.flash, m.flashErr)
	}
}

func TestCancelRefusedForFinishedOrder(t *testing.T) {
	m, muts, _, _ := newTestModel(t, sampleOrders(), api.Settings{})
	m.setFilter(FilterAll)
	m = press(t, m, runeKey("G"))
	if o, _ := m.current(); o.ID != 1 {
		t.Fatalf("selected %d, want order 1", o.ID)
	}

	m = press(t, m, runeKey("x"))
	if len(muts.updates) != 0 {
		t.Fatalf("cancel of delivered order was sent: %#v", muts.updates)
	}
	if !m.flashErr {
		t.Fatalf("expected an error flash, got %q", m.flash)
	}

	m = press(t, m, runeKey("s"))
	if len(muts.seen) != 1 || muts.seen[0] != 1 {
		t.Fatalf("rating seen calls = %#v", muts.seen)
	}
}

func TestFailedWriteShowsError(t *testing.T) {
	m, muts, _, _ := newTestModel(t, sampleOrders(), api.Settings{})
	muts.err = api.ErrUnauthorized

	m = press(t, m, runeKey("D"))
	if len(muts.deleted) != 1 || muts.deleted[0] != 3 {
		t.Fatalf("deleted = %#v", muts.deleted)
	}
	if !m.flashErr || !strings.Contains(m.flash, "session expired") {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestLoadMoreAtEnd(t *testing.T) {
	m, _, pg, _ := newTestModel(t, sampleOrders(), api.Settings{})
	pg.loadErr = pager.ErrNoMorePages

	m = press(t, m, runeKey("m"))
	if m.loading {
		t.Fatalf("loading still set after the result arrived")
	}
	if m.flash != "no more orders" {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestSearchSubmitsQuery(t *testing.T) {
	m, _, pg, _ := newTestModel(t, sampleOrders(), api.Settings{})

	m = send(m, runeKey("/"))
	if !m.searching {
		t.Fatalf("search mode not entered")
	}
	for _, r := range "amel q" {
		m = send(m, runeKey(string(r)))
	}
	if !m.searching {
		t.Fatalf("typing q while searching should not quit")
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.searching {
		t.Fatalf("search mode not left on enter")
	}
	if len(pg.searches) != 1 || pg.searches[0] != "amel q" {
		t.Fatalf("searches = %#v", pg.searches)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(pg.searches) != 2 || pg.searches[1] != "" {
		t.Fatalf("esc should clear the search, got %#v", pg.searches)
	}
}

func TestTabCyclesFilterAndSavesPrefs(t *testing.T) {
	m, _, _, prefsPath := newTestModel(t, sampleOrders(), api.Settings{})
	if len(m.visible()) != 2 {
		t.Fatalf("active tab shows %d orders, want 2", len(m.visible()))
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.filter != Filter(api.StatusNew) || len(m.visible()) != 1 {
		t.Fatalf("filter = %q visible = %d", m.filter, len(m.visible()))
	}
	m = press(t, m, runeKey("T"))

	saved, err := prefs.Load(prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.StatusFilter != "new" || saved.Theme != m.theme.Name || saved.Theme == "Nightfox" {
		t.Fatalf("saved prefs = %#v", saved)
	}
}

func TestSelectionFollowsOrderAcrossSnapshots(t *testing.T) {
	m, _, _, _ := newTestModel(t, sampleOrders(), api.Settings{})
	m = press(t, m, runeKey("j"))
	if o, _ := m.current(); o.ID != 2 {
		t.Fatalf("selected %d, want 2", o.ID)
	}

	orders := append([]api.Order{{ID: 4, Status: api.StatusNew, CreatedAt: time.Now()}}, sampleOrders()...)
	m.store.SetOrders(orders)
	model, _ := m.Update(storeChangedMsg{})
	m = model.(Model)
	if o, _ := m.current(); o.ID != 2 {
		t.Fatalf("selection moved to %d after a new order arrived", o.ID)
	}
}

func TestHeaderOpenIndicator(t *testing.T) {
	tests := []struct {
		name     string
		settings api.Settings
		want     string
		absent   []string
	}{
		{"unknown", api.Settings{RestaurantName: api.Ptr("Chez Amel")}, "Chez Amel", []string{"open", "closed"}},
		{"open", api.Settings{IsOpen: api.Ptr(true)}, "open", []string{"closed"}},
		{"closed", api.Settings{IsOpen: api.Ptr(false)}, "closed", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _, _ := newTestModel(t, sampleOrders(), tt.settings)
			view := m.View()
			if !strings.Contains(view, tt.want) {
				t.Fatalf("view missing %q", tt.want)
			}
			for _, s := range tt.absent {
				if strings.Contains(view, s) {
					t.Fatalf("view unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestHeaderRevenueCountsCompletionDay(t *testing.T) {
	now := time.Now()
	lastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -3)
	orders := []api.Order{
		{ID: 4, Status: api.StatusNew, Total: 700, CreatedAt: now},
		{ID: 3, Status: api.StatusCancelled, Total: 5000, CreatedAt: now},
		// Created last month but completed now, so it is today's money.
		{ID: 2, Status: api.StatusDelivered, Total: 200, CreatedAt: lastMonth, CompletedAt: &now},
		{ID: 1, Status: api.StatusDelivered, Total: 100, CreatedAt: lastMonth, CompletedAt: &lastMonth},
	}
	m, _, _, _ := newTestModel(t, orders, api.Settings{Currency: api.Ptr("EUR")})

	view := m.View()
	if !strings.Contains(view, "today 900 EUR / month 900 EUR") {
		t.Fatalf("header revenue missing:\n%s", view)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{pager.ErrNoMorePages, "no more orders"},
		{pager.ErrListChanged, "list refreshed, load more again"},
		{api.ErrInvalidTransition, "that status change is not allowed"},
		{errors.Join(api.ErrNetwork, errors.New("dial")), "refresh failed: server unreachable"},
		{context.DeadlineExceeded, "refresh timed out"},
		{errors.New("boom"), "refresh failed: boom"},
	}
	for _, tt := range tests {
		if got := describeError("refresh", tt.err); got != tt.want {
			t.Fatalf("describeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

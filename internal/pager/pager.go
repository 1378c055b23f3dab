// Package pager loads the order list page by page.
package pager

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/loader"
	"github.com/frer-max/fassr/internal/state"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 20

// ErrNoMorePages is returned by LoadMore once the last page is loaded.
var ErrNoMorePages = errors.New("no more pages")

// ErrListChanged is returned by LoadPage when the list was replaced while
// the page was in flight. The page is dropped.
var ErrListChanged = errors.New("order list changed while loading")

// OrderSource fetches one page of orders.
type OrderSource interface {
	FetchOrders(ctx context.Context, query api.OrderQuery) (api.OrderPage, error)
}

// Hydrator fills in fields the server does not keep.
type Hydrator interface {
	Hydrate(order api.Order) api.Order
}

// Pager tracks the active search query and loads pages of it into the
// store. The cursor itself lives in the store next to the orders.
type Pager struct {
	source   OrderSource
	store    *state.Store
	hydrator Hydrator
	limit    int

	mu     sync.Mutex
	search string
	gen    uint64
}

// New returns a Pager. A non-positive limit selects DefaultLimit and a nil
// hydrator leaves orders as fetched.
func New(source OrderSource, store *state.Store, hydrator Hydrator, limit int) *Pager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Pager{source: source, store: store, hydrator: hydrator, limit: limit}
}

// Limit returns the page size.
func (p *Pager) Limit() int {
	return p.limit
}

// Query returns the active search term.
func (p *Pager) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.search
}

// LoadFirst clears the search and replaces the list with page 1.
func (p *Pager) LoadFirst(ctx context.Context) error {
	return p.Search(ctx, "")
}

// Search replaces the list with page 1 of the orders matching q.
func (p *Pager) Search(ctx context.Context, q string) error {
	p.mu.Lock()
	p.search = strings.TrimSpace(q)
	p.gen++
	p.mu.Unlock()

	commit, err := p.Fetcher()(ctx)
	if err != nil {
		p.store.MarkFailed(state.Orders, err)
		return err
	}
	commit()
	p.store.MarkLoaded(state.Orders)
	return nil
}

// LoadPage appends page n of the active query. Orders already listed are
// skipped, and the cursor is taken from the response. Page n is only
// appended directly after page n-1; if a refresh replaced the list in the
// meantime the page is dropped and ErrListChanged returned.
func (p *Pager) LoadPage(ctx context.Context, n int) error {
	search, gen := p.snapshot()
	page, err := p.fetch(ctx, n, search)
	if err != nil {
		return err
	}
	n = max(n, 1)
	stale := false
	p.store.UpdateOrderPage(func(list []api.Order, cursor api.Pagination) ([]api.Order, api.Pagination) {
		if !p.current(gen) || (n > 1 && cursor.Page != n-1) {
			stale = true
			return list, cursor
		}
		seen := make(map[int64]bool, len(list))
		for _, o := range list {
			seen[o.ID] = true
		}
		for _, o := range page.Items {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			list = append(list, o)
		}
		return list, page.Pagination
	})
	if stale {
		return ErrListChanged
	}
	return nil
}

// LoadMore appends the next page while one exists.
func (p *Pager) LoadMore(ctx context.Context) error {
	cursor := p.store.Cursor()
	if !cursor.HasMore() {
		return ErrNoMorePages
	}
	return p.LoadPage(ctx, cursor.Page+1)
}

// Fetcher returns the orders fetcher used by the loader: page 1 of the
// active query, replacing the list. A commit made stale by a newer search
// is dropped.
func (p *Pager) Fetcher() loader.Fetcher {
	return func(ctx context.Context) (func(), error) {
		search, gen := p.snapshot()
		page, err := p.fetch(ctx, 1, search)
		if err != nil {
			return nil, err
		}
		return func() {
			p.store.UpdateOrderPage(func(list []api.Order, cursor api.Pagination) ([]api.Order, api.Pagination) {
				if !p.current(gen) {
					return list, cursor
				}
				return page.Items, page.Pagination
			})
		}, nil
	}
}

func (p *Pager) fetch(ctx context.Context, n int, search string) (api.OrderPage, error) {
	if n < 1 {
		n = 1
	}
	page, err := p.source.FetchOrders(ctx, api.OrderQuery{Page: n, Limit: p.limit, Search: search})
	if err != nil {
		return api.OrderPage{}, err
	}
	if p.hydrator != nil {
		for i, o := range page.Items {
			page.Items[i] = p.hydrator.Hydrate(o)
		}
	}
	return page, nil
}

func (p *Pager) snapshot() (string, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.search, p.gen
}

func (p *Pager) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

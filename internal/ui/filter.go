package ui

import (
	"strings"

	"github.com/frer-max/fassr/internal/api"
)

// Filter selects which orders the board shows.
type Filter string

const (
	FilterActive Filter = "active"
	FilterAll    Filter = "all"
)

// filterOrder is the tab order.
var filterOrder = []Filter{
	FilterActive,
	Filter(api.StatusNew),
	Filter(api.StatusPreparing),
	Filter(api.StatusReady),
	Filter(api.StatusDelivered),
	Filter(api.StatusCancelled),
	FilterAll,
}

// ParseFilter maps a saved preference to a Filter, defaulting to active.
func ParseFilter(value string) Filter {
	f := Filter(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range filterOrder {
		if f == known {
			return f
		}
	}
	return FilterActive
}

// Match reports whether o belongs on the tab.
func (f Filter) Match(o api.Order) bool {
	switch f {
	case FilterAll:
		return true
	case FilterActive:
		return o.Status == api.StatusNew || o.Status == api.StatusPreparing || o.Status == api.StatusReady
	default:
		return o.Status == api.OrderStatus(f)
	}
}

// Label is the tab title.
func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterAll:
		return "All"
	}
	s := string(f)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (f Filter) next(step int) Filter {
	for i, known := range filterOrder {
		if known == f {
			n := len(filterOrder)
			return filterOrder[((i+step)%n+n)%n]
		}
	}
	return FilterActive
}

func applyFilter(orders []api.Order, f Filter) []api.Order {
	out := make([]api.Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

func countByFilter(orders []api.Order) map[Filter]int {
	counts := make(map[Filter]int, len(filterOrder))
	for _, o := range orders {
		for _, f := range filterOrder {
			if f.Match(o) {
				counts[f]++
			}
		}
	}
	return counts
}

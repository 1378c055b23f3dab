// Package repo is the server's record store for categories, meals,
// settings and orders.
//
// Memory keeps everything in process. SQLite wraps Memory and snapshots the
// whole state into a SQLite file after every successful write, one JSON
// blob per bucket, and loads it back on open.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/frer-max/fassr/internal/api"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for unknown statuses and dangling category ids.
	ErrInvalid = errors.New("invalid record")
)

// Repository is the black-box store behind the HTTP handlers.
type Repository interface {
	ListCategories(ctx context.Context) ([]api.Category, error)
	SaveCategory(ctx context.Context, category api.Category) (api.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListMeals(ctx context.Context, query api.MealQuery) (api.MealPage, error)
	SaveMeal(ctx context.Context, meal api.Meal) (api.Meal, error)
	DeleteMeal(ctx context.Context, id int64) error

	GetSettings(ctx context.Context) (api.Settings, error)
	SaveSettings(ctx context.Context, update api.Settings) (api.Settings, error)

	ListOrders(ctx context.Context, query api.OrderQuery) (api.OrderPage, error)
	CreateOrder(ctx context.Context, order api.Order) (api.Order, error)
	UpdateOrder(ctx context.Context, update api.StatusUpdate) (api.Order, error)
	DeleteOrder(ctx context.Context, id int64) error

	Analytics(ctx context.Context, now time.Time) (api.Analytics, error)
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Categories []api.Category `json:"categories"`
	Meals      []api.Meal     `json:"meals"`
	Settings   api.Settings   `json:"settings"`
	Orders     []api.Order    `json:"orders"`
	NextID     int64          `json:"nextId"`
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Categories: append([]api.Category(nil), s.Categories...),
		Settings:   s.Settings.Clone(),
		NextID:     s.NextID,
	}
	if s.Meals != nil {
		out.Meals = make([]api.Meal, len(s.Meals))
		for i, m := range s.Meals {
			out.Meals[i] = m.Clone()
		}
	}
	if s.Orders != nil {
		out.Orders = make([]api.Order, len(s.Orders))
		for i, o := range s.Orders {
			out.Orders[i] = o.Clone()
		}
	}
	return out
}

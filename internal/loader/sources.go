package loader

import (
	"context"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/state"
)

// Catalog is the part of the API client the menu fetchers need.
type Catalog interface {
	FetchCategories(ctx context.Context) ([]api.Category, error)
	FetchMeals(ctx context.Context, query api.MealQuery) (api.MealPage, error)
	FetchSettings(ctx context.Context) (api.Settings, error)
}

// Sources builds the fetchers for categories, meals and settings. orders
// is registered as is; the pager owns the order query.
func Sources(client Catalog, store *state.Store, orders Fetcher) map[state.Kind]Fetcher {
	sources := map[state.Kind]Fetcher{
		state.Categories: func(ctx context.Context) (func(), error) {
			list, err := client.FetchCategories(ctx)
			if err != nil {
				return nil, err
			}
			return func() { store.SetCategories(list) }, nil
		},
		state.Meals: func(ctx context.Context) (func(), error) {
			page, err := client.FetchMeals(ctx, api.MealQuery{})
			if err != nil {
				return nil, err
			}
			return func() { store.SetMeals(page.Items) }, nil
		},
		state.Settings: func(ctx context.Context) (func(), error) {
			settings, err := client.FetchSettings(ctx)
			if err != nil {
				return nil, err
			}
			return func() { store.SetSettings(settings) }, nil
		},
	}
	if orders != nil {
		sources[state.Orders] = orders
	}
	return sources
}

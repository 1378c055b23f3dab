package mutation

import (
	"context"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/state"
)

// SaveCategory creates category when it has no id and updates it otherwise.
func (e *Engine) SaveCategory(ctx context.Context, category api.Category) (api.Category, error) {
	if category.ID == 0 {
		return e.createCategory(ctx, category)
	}
	byID := func(c api.Category) bool { return c.ID == category.ID }

	var (
		pre   api.Category
		found bool
	)
	e.store.UpdateCategories(func(list []api.Category) []api.Category {
		if i := indexOf(list, byID); i >= 0 {
			pre, found = list[i], true
			list[i] = category
		}
		return list
	})
	if !found {
		return api.Category{}, notFound(state.Categories, category.ID)
	}

	saved, err := e.client.SaveCategory(ctx, category)
	if err != nil {
		e.store.UpdateCategories(func(list []api.Category) []api.Category {
			if i := indexOf(list, byID); i >= 0 {
				list[i] = pre
			}
			return list
		})
		e.rolledBack(state.Categories, "update", category.ID, err)
		return api.Category{}, err
	}

	e.store.UpdateCategories(func(list []api.Category) []api.Category {
		if i := indexOf(list, byID); i >= 0 {
			list[i] = saved
		}
		return list
	})
	return saved, nil
}

func (e *Engine) createCategory(ctx context.Context, category api.Category) (api.Category, error) {
	key := e.newKey()
	category.ClientKey = key
	byKey := func(c api.Category) bool { return c.ClientKey == key }

	e.store.UpdateCategories(func(list []api.Category) []api.Category {
		return append(list, category)
	})

	saved, err := e.client.SaveCategory(ctx, category)
	if err != nil {
		e.store.UpdateCategories(func(list []api.Category) []api.Category {
			if i := indexOf(list, byKey); i >= 0 {
				return removeAt(list, i)
			}
			return list
		})
		e.rolledBack(state.Categories, "create", key, err)
		return api.Category{}, err
	}

	saved.ClientKey = ""
	e.store.UpdateCategories(func(list []api.Category) []api.Category {
		return replaceOrInsert(list, saved, len(list), byKey, func(c api.Category) bool { return c.ID == saved.ID })
	})
	return saved, nil
}

// DeleteCategory removes category id together with its meals, which the
// server deletes in cascade. Both come back if the server refuses.
func (e *Engine) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound(state.Categories, id)
	}
	byID := func(c api.Category) bool { return c.ID == id }

	var (
		pre api.Category
		at  = -1
	)
	e.store.UpdateCategories(func(list []api.Category) []api.Category {
		if at = indexOf(list, byID); at >= 0 {
			pre = list[at]
			return removeAt(list, at)
		}
		return list
	})
	if at < 0 {
		return notFound(state.Categories, id)
	}

	type placed struct {
		at   int
		meal api.Meal
	}
	var removed []placed
	e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
		kept := list[:0]
		for i, m := range list {
			if m.CategoryID == id {
				removed = append(removed, placed{at: i, meal: m})
				continue
			}
			kept = append(kept, m)
		}
		return kept
	})

	if err := e.client.DeleteCategory(ctx, id); err != nil {
		e.store.UpdateCategories(func(list []api.Category) []api.Category {
			if indexOf(list, byID) >= 0 {
				return list
			}
			return insertAt(list, at, pre)
		})
		if len(removed) > 0 {
			e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
				for _, p := range removed {
					if indexOf(list, func(m api.Meal) bool { return m.ID == p.meal.ID }) >= 0 {
						continue
					}
					list = insertAt(list, p.at, p.meal)
				}
				return list
			})
		}
		e.rolledBack(state.Categories, "delete", id, err)
		return err
	}
	return nil
}

// SaveMeal creates meal when it has no id and updates it otherwise.
func (e *Engine) SaveMeal(ctx context.Context, meal api.Meal) (api.Meal, error) {
	if meal.ID == 0 {
		return e.createMeal(ctx, meal)
	}
	byID := func(m api.Meal) bool { return m.ID == meal.ID }

	var (
		pre   api.Meal
		found bool
	)
	e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
		if i := indexOf(list, byID); i >= 0 {
			pre, found = list[i], true
			list[i] = meal.Clone()
		}
		return list
	})
	if !found {
		return api.Meal{}, notFound(state.Meals, meal.ID)
	}

	saved, err := e.client.SaveMeal(ctx, meal)
	if err != nil {
		e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
			if i := indexOf(list, byID); i >= 0 {
				list[i] = pre
			}
			return list
		})
		e.rolledBack(state.Meals, "update", meal.ID, err)
		return api.Meal{}, err
	}

	e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
		if i := indexOf(list, byID); i >= 0 {
			list[i] = saved
		}
		return list
	})
	return saved, nil
}

func (e *Engine) createMeal(ctx context.Context, meal api.Meal) (api.Meal, error) {
	key := e.newKey()
	meal = meal.Clone()
	meal.ClientKey = key
	byKey := func(m api.Meal) bool { return m.ClientKey == key }

	e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
		return append(list, meal)
	})

	saved, err := e.client.SaveMeal(ctx, meal)
	if err != nil {
		e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
			if i := indexOf(list, byKey); i >= 0 {
				return removeAt(list, i)
			}
			return list
		})
		e.rolledBack(state.Meals, "create", key, err)
		return api.Meal{}, err
	}

	saved.ClientKey = ""
	e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
		return replaceOrInsert(list, saved, len(list), byKey, func(m api.Meal) bool { return m.ID == saved.ID })
	})
	return saved, nil
}

// DeleteMeal removes meal id and restores it in place if the server refuses.
func (e *Engine) DeleteMeal(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound(state.Meals, id)
	}
	byID := func(m api.Meal) bool { return m.ID == id }

	var (
		pre api.Meal
		at  = -1
	)
	e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
		if at = indexOf(list, byID); at >= 0 {
			pre = list[at]
			return removeAt(list, at)
		}
		return list
	})
	if at < 0 {
		return notFound(state.Meals, id)
	}

	if err := e.client.DeleteMeal(ctx, id); err != nil {
		e.store.UpdateMeals(func(list []api.Meal) []api.Meal {
			if indexOf(list, byID) >= 0 {
				return list
			}
			return insertAt(list, at, pre)
		})
		e.rolledBack(state.Meals, "delete", id, err)
		return err
	}
	return nil
}

// SaveSettings merges update into the settings right away and sends it.
// The server's merged record is merged in on success. On failure only the
// fields named in update go back to their prior values, so writes that
// landed in between are kept.
func (e *Engine) SaveSettings(ctx context.Context, update api.Settings) (api.Settings, error) {
	var prior api.Settings
	e.store.UpdateSettings(func(cur api.Settings) api.Settings {
		prior = cur.Clone()
		return cur.Merge(update)
	})

	saved, err := e.client.SaveSettings(ctx, update)
	if err != nil {
		e.store.UpdateSettings(func(cur api.Settings) api.Settings {
			return cur.Revert(prior, update)
		})
		e.rolledBack(state.Settings, "save", "settings", err)
		return api.Settings{}, err
	}
	return e.store.SetSettings(saved), nil
}

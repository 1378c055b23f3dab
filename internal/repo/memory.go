package repo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/frer-max/fassr/internal/api"
)

const defaultPageLimit = 20

// Memory is an in-process Repository.
type Memory struct {
	mu      sync.RWMutex
	state   Snapshot
	nowFn   func() time.Time
	persist func(Snapshot) error
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{nowFn: time.Now}
}

// ExportState returns a copy of the full state.
func (m *Memory) ExportState() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// ImportState replaces the full state.
func (m *Memory) ImportState(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.clone()
}

// mutate applies fn to a working copy and commits it only when fn and the
// persist hook both succeed.
func (m *Memory) mutate(fn func(s *Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if m.persist != nil {
		if err := m.persist(next); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
	}
	m.state = next
	return nil
}

func (s *Snapshot) newID() int64 {
	s.NextID++
	return s.NextID
}

// ListCategories returns every category ordered by position.
func (m *Memory) ListCategories(context.Context) ([]api.Category, error) {
	m.mu.RLock()
	out := append([]api.Category{}, m.state.Categories...)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// SaveCategory inserts category when its id is zero and replaces it otherwise.
func (m *Memory) SaveCategory(_ context.Context, category api.Category) (api.Category, error) {
	category.ClientKey = ""
	err := m.mutate(func(s *Snapshot) error {
		if category.ID == 0 {
			category.ID = s.newID()
			s.Categories = append(s.Categories, category)
			return nil
		}
		for i := range s.Categories {
			if s.Categories[i].ID == category.ID {
				s.Categories[i] = category
				return nil
			}
		}
		return fmt.Errorf("category %d: %w", category.ID, ErrNotFound)
	})
	if err != nil {
		return api.Category{}, err
	}
	return category, nil
}

// DeleteCategory removes category id and every meal in it.
func (m *Memory) DeleteCategory(_ context.Context, id int64) error {
	return m.mutate(func(s *Snapshot) error {
		i := indexByID(s.Categories, id, func(c api.Category) int64 { return c.ID })
		if i < 0 {
			return fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
		kept := s.Meals[:0]
		for _, meal := range s.Meals {
			if meal.CategoryID != id {
				kept = append(kept, meal)
			}
		}
		s.Meals = kept
		return nil
	})
}

// ListMeals returns the meals matching query. A zero query returns every
// meal on a single page.
func (m *Memory) ListMeals(_ context.Context, query api.MealQuery) (api.MealPage, error) {
	m.mu.RLock()
	var matched []api.Meal
	search := strings.ToLower(strings.TrimSpace(query.Search))
	for _, meal := range m.state.Meals {
		if query.CategoryID != 0 && meal.CategoryID != query.CategoryID {
			continue
		}
		if query.Active != nil && meal.Active != *query.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(meal.Name), search) {
			continue
		}
		matched = append(matched, meal.Clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Order != matched[j].Order {
			return matched[i].Order < matched[j].Order
		}
		return matched[i].ID < matched[j].ID
	})
	if query.IsZero() {
		return api.MealPage{Items: nonNil(matched), Pagination: api.NewPagination(len(matched), 1, len(matched))}, nil
	}
	items, pagination := paginate(matched, query.Page, query.Limit)
	return api.MealPage{Items: items, Pagination: pagination}, nil
}

// SaveMeal inserts meal when its id is zero and replaces it otherwise.
func (m *Memory) SaveMeal(_ context.Context, meal api.Meal) (api.Meal, error) {
	meal = meal.Clone()
	meal.ClientKey = ""
	err := m.mutate(func(s *Snapshot) error {
		if meal.CategoryID != 0 && indexByID(s.Categories, meal.CategoryID, func(c api.Category) int64 { return c.ID }) < 0 {
			return fmt.Errorf("category %d: %w", meal.CategoryID, ErrInvalid)
		}
		if meal.ID == 0 {
			meal.ID = s.newID()
			s.Meals = append(s.Meals, meal)
			return nil
		}
		i := indexByID(s.Meals, meal.ID, func(m api.Meal) int64 { return m.ID })
		if i < 0 {
			return fmt.Errorf("meal %d: %w", meal.ID, ErrNotFound)
		}
		s.Meals[i] = meal
		return nil
	})
	if err != nil {
		return api.Meal{}, err
	}
	return meal, nil
}

// DeleteMeal removes meal id.
func (m *Memory) DeleteMeal(_ context.Context, id int64) error {
	return m.mutate(func(s *Snapshot) error {
		i := indexByID(s.Meals, id, func(m api.Meal) int64 { return m.ID })
		if i < 0 {
			return fmt.Errorf("meal %d: %w", id, ErrNotFound)
		}
		s.Meals = append(s.Meals[:i], s.Meals[i+1:]...)
		return nil
	})
}

// GetSettings returns the settings record.
func (m *Memory) GetSettings(context.Context) (api.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Settings.Clone(), nil
}

// SaveSettings merges update into the settings record and returns the result.
func (m *Memory) SaveSettings(_ context.Context, update api.Settings) (api.Settings, error) {
	var merged api.Settings
	err := m.mutate(func(s *Snapshot) error {
		s.Settings = s.Settings.Merge(update)
		merged = s.Settings.Clone()
		return nil
	})
	return merged, err
}

// ListOrders returns one page of orders, newest first. Search matches the
// customer name, phone or the order number.
func (m *Memory) ListOrders(_ context.Context, query api.OrderQuery) (api.OrderPage, error) {
	search := strings.ToLower(strings.TrimSpace(query.Search))
	m.mu.RLock()
	var matched []api.Order
	for _, o := range m.state.Orders {
		if query.Status != "" && o.Status != query.Status {
			continue
		}
		if search != "" && !matchesOrder(o, search) {
			continue
		}
		matched = append(matched, o.Clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	items, pagination := paginate(matched, query.Page, query.Limit)
	return api.OrderPage{Items: items, Pagination: pagination}, nil
}

func matchesOrder(o api.Order, search string) bool {
	return strings.Contains(strings.ToLower(o.Customer.Name), search) ||
		strings.Contains(o.Customer.Phone, search) ||
		strconv.FormatInt(o.ID, 10) == search
}

// CreateOrder assigns an id and stores order. Totals are kept as sent.
func (m *Memory) CreateOrder(_ context.Context, order api.Order) (api.Order, error) {
	order = order.Clone()
	if order.Status == "" {
		order.Status = api.StatusNew
	}
	if !order.Status.Valid() {
		return api.Order{}, fmt.Errorf("status %q: %w", order.Status, ErrInvalid)
	}
	order.ClientKey = ""
	order.CompletedAt = nil
	if order.CreatedAt.IsZero() {
		order.CreatedAt = m.nowFn().UTC()
	}
	err := m.mutate(func(s *Snapshot) error {
		order.ID = s.newID()
		s.Orders = append(s.Orders, order)
		return nil
	})
	if err != nil {
		return api.Order{}, err
	}
	return order, nil
}

// UpdateOrder applies the fields set in update to order update.ID.
func (m *Memory) UpdateOrder(_ context.Context, update api.StatusUpdate) (api.Order, error) {
	if update.Status != "" && !update.Status.Valid() {
		return api.Order{}, fmt.Errorf("status %q: %w", update.Status, ErrInvalid)
	}
	var out api.Order
	err := m.mutate(func(s *Snapshot) error {
		i := indexByID(s.Orders, update.ID, func(o api.Order) int64 { return o.ID })
		if i < 0 {
			return fmt.Errorf("order %d: %w", update.ID, ErrNotFound)
		}
		o := &s.Orders[i]
		if update.Status != "" {
			o.Status = update.Status
		}
		if update.Rating != nil {
			r := *update.Rating
			o.Rating = &r
		}
		if update.Review != nil {
			o.Review = *update.Review
		}
		if update.RatingSeen != nil {
			o.RatingSeen = *update.RatingSeen
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

// DeleteOrder removes order id.
func (m *Memory) DeleteOrder(_ context.Context, id int64) error {
	return m.mutate(func(s *Snapshot) error {
		i := indexByID(s.Orders, id, func(o api.Order) int64 { return o.ID })
		if i < 0 {
			return fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		s.Orders = append(s.Orders[:i], s.Orders[i+1:]...)
		return nil
	})
}

// Analytics summarizes every stored order as of now.
func (m *Memory) Analytics(_ context.Context, now time.Time) (api.Analytics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return api.Summarize(m.state.Orders, now), nil
}

func indexByID[T any](list []T, id int64, key func(T) int64) int {
	for i, v := range list {
		if key(v) == id {
			return i
		}
	}
	return -1
}

func paginate[T any](list []T, page, limit int) ([]T, api.Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	start := (page - 1) * limit
	if start > len(list) {
		start = len(list)
	}
	end := min(start+limit, len(list))
	return nonNil(list[start:end]), api.NewPagination(len(list), page, limit)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

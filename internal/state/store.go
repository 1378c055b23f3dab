package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/kv"
)

// Kind names an independently loadable entity collection.
type Kind string

const (
	Categories Kind = "categories"
	Meals      Kind = "meals"
	Settings   Kind = "settings"
	Orders     Kind = "orders"
)

// Kinds lists every collection.
var Kinds = []Kind{Categories, Meals, Settings, Orders}

// Status describes the freshness of one collection.
type Status struct {
	Loaded              bool // a fetch succeeded and none failed since
	Restored            bool // data came from the durable cache
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the collection failed to load repeatedly.
func (s Status) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

type orderCache struct {
	Items      []api.Order    `json:"items"`
	Pagination api.Pagination `json:"pagination"`
}

// Store holds the last known value of every collection. All reads return
// copies and all writes replace whole snapshots, so callers can never patch
// shared state in place. The zero value is usable and keeps nothing on disk.
type Store struct {
	mu         sync.RWMutex
	categories []api.Category
	meals      []api.Meal
	settings   api.Settings
	orders     []api.Order
	cursor     api.Pagination
	status     map[Kind]Status

	cache  kv.Store
	logger *zap.Logger

	subMu  sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	kinds map[Kind]bool
	ch    chan struct{}
}

// New returns a Store mirrored to cache. A nil cache disables persistence.
func New(cache kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cache: cache, logger: logger}
}

func cacheKey(kind Kind) string {
	return "cache/" + string(kind)
}

// Restore warm-starts every collection from the durable mirror. Restored
// data is served immediately but does not count as loaded.
func (s *Store) Restore() error {
	if s.cache == nil {
		return nil
	}
	var errs []error
	restored := make([]Kind, 0, len(Kinds))

	s.mu.Lock()
	for _, kind := range Kinds {
		raw, ok, err := s.cache.Get(cacheKey(kind))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok || raw == "" {
			continue
		}
		if err := s.decodeLocked(kind, []byte(raw)); err != nil {
			errs = append(errs, fmt.Errorf("decode cached %s: %w", kind, err))
			continue
		}
		st := s.statusLocked(kind)
		st.Restored = true
		s.setStatusLocked(kind, st)
		restored = append(restored, kind)
	}
	s.mu.Unlock()

	s.notify(restored...)
	return errors.Join(errs...)
}

func (s *Store) decodeLocked(kind Kind, raw []byte) error {
	switch kind {
	case Categories:
		var v []api.Category
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.categories = v
	case Meals:
		var v []api.Meal
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.meals = v
	case Settings:
		var v api.Settings
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.settings = v
	case Orders:
		var v orderCache
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.orders = v.Items
		s.cursor = v.Pagination
	}
	return nil
}

// Categories returns the category snapshot.
func (s *Store) Categories() []api.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Category{}, s.categories...)
}

// Meals returns the meal snapshot.
func (s *Store) Meals() []api.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMeals(s.meals)
}

// Settings returns the settings snapshot. Fields never loaded are nil, so
// an unknown open state reads as IsOpen == nil rather than closed.
func (s *Store) Settings() api.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone()
}

// Orders returns the order snapshot.
func (s *Store) Orders() []api.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders)
}

// Cursor returns the pagination cursor attached to the orders.
func (s *Store) Cursor() api.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Status returns the freshness record of kind.
func (s *Store) Status(kind Kind) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.statusLocked(kind)
	if st.LastError != nil {
		st.LastError = fmt.Errorf("%w", st.LastError)
	}
	return st
}

// Loaded reports whether kind holds server-confirmed data.
func (s *Store) Loaded(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked(kind).Loaded
}

// MarkLoaded records a successful fetch of kind.
func (s *Store) MarkLoaded(kind Kind) {
	s.mu.Lock()
	st := s.statusLocked(kind)
	st.Loaded = true
	st.LastError = nil
	st.ConsecutiveFailures = 0
	st.LastUpdated = time.Now()
	s.setStatusLocked(kind, st)
	s.mu.Unlock()
}

// MarkFailed records a failed fetch of kind. The data is left untouched.
func (s *Store) MarkFailed(kind Kind, err error) {
	s.mu.Lock()
	st := s.statusLocked(kind)
	st.Loaded = false
	st.LastError = err
	st.ConsecutiveFailures++
	s.setStatusLocked(kind, st)
	s.mu.Unlock()
}

// SetCategories replaces the category snapshot.
func (s *Store) SetCategories(list []api.Category) {
	s.UpdateCategories(func([]api.Category) []api.Category { return list })
}

// UpdateCategories replaces the category snapshot with fn applied to a
// private copy of the current one.
func (s *Store) UpdateCategories(fn func([]api.Category) []api.Category) {
	s.mu.Lock()
	s.categories = append([]api.Category{}, fn(append([]api.Category{}, s.categories...))...)
	s.persistLocked(Categories, s.categories)
	s.mu.Unlock()
	s.notify(Categories)
}

// SetMeals replaces the meal snapshot.
func (s *Store) SetMeals(list []api.Meal) {
	s.UpdateMeals(func([]api.Meal) []api.Meal { return list })
}

// UpdateMeals replaces the meal snapshot with fn applied to a private copy
// of the current one.
func (s *Store) UpdateMeals(fn func([]api.Meal) []api.Meal) {
	s.mu.Lock()
	s.meals = cloneMeals(fn(cloneMeals(s.meals)))
	s.persistLocked(Meals, s.meals)
	s.mu.Unlock()
	s.notify(Meals)
}

// SetSettings merges update into the settings snapshot field by field and
// returns the result. Fields absent from update keep their previous value.
func (s *Store) SetSettings(update api.Settings) api.Settings {
	s.mu.Lock()
	s.settings = s.settings.Merge(update)
	merged := s.settings.Clone()
	s.persistLocked(Settings, s.settings)
	s.mu.Unlock()
	s.notify(Settings)
	return merged
}

// UpdateSettings replaces the settings snapshot with fn applied to a
// private copy and returns the result.
func (s *Store) UpdateSettings(fn func(api.Settings) api.Settings) api.Settings {
	s.mu.Lock()
	s.settings = fn(s.settings.Clone()).Clone()
	out := s.settings.Clone()
	s.persistLocked(Settings, s.settings)
	s.mu.Unlock()
	s.notify(Settings)
	return out
}

// SetOrders replaces the order list and keeps the cursor.
func (s *Store) SetOrders(list []api.Order) {
	s.UpdateOrderPage(func(_ []api.Order, cursor api.Pagination) ([]api.Order, api.Pagination) {
		return list, cursor
	})
}

// SetOrderPage replaces the order list and its cursor.
func (s *Store) SetOrderPage(list []api.Order, cursor api.Pagination) {
	s.UpdateOrderPage(func([]api.Order, api.Pagination) ([]api.Order, api.Pagination) {
		return list, cursor
	})
}

// UpdateOrders replaces the order list with fn applied to a private copy.
func (s *Store) UpdateOrders(fn func([]api.Order) []api.Order) {
	s.UpdateOrderPage(func(list []api.Order, cursor api.Pagination) ([]api.Order, api.Pagination) {
		return fn(list), cursor
	})
}

// UpdateOrderPage replaces the order list and cursor with the result of fn.
func (s *Store) UpdateOrderPage(fn func([]api.Order, api.Pagination) ([]api.Order, api.Pagination)) {
	s.mu.Lock()
	list, cursor := fn(cloneOrders(s.orders), s.cursor)
	s.orders = cloneOrders(list)
	s.cursor = cursor
	s.persistLocked(Orders, orderCache{Items: s.orders, Pagination: s.cursor})
	s.mu.Unlock()
	s.notify(Orders)
}

// Subscribe returns a channel that receives a value after writes to any of
// kinds (all kinds when none are given). Notifications coalesce: a slow
// reader sees one pending signal, never a backlog. Call cancel to release.
func (s *Store) Subscribe(kinds ...Kind) (<-chan struct{}, func()) {
	sub := &subscriber{kinds: make(map[Kind]bool), ch: make(chan struct{}, 1)}
	if len(kinds) == 0 {
		kinds = Kinds
	}
	for _, k := range kinds {
		sub.kinds[k] = true
	}

	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]*subscriber)
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.subMu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(kinds ...Kind) {
	if len(kinds) == 0 {
		return
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subs {
		for _, k := range kinds {
			if !sub.kinds[k] {
				continue
			}
			select {
			case sub.ch <- struct{}{}:
			default:
			}
			break
		}
	}
}

func (s *Store) persistLocked(kind Kind, v any) {
	st := s.statusLocked(kind)
	st.LastUpdated = time.Now()
	s.setStatusLocked(kind, st)

	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encode cache entry failed", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	if err := s.cache.Set(cacheKey(kind), string(raw)); err != nil {
		s.logger.Warn("persist cache entry failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (s *Store) statusLocked(kind Kind) Status {
	return s.status[kind]
}

func (s *Store) setStatusLocked(kind Kind, st Status) {
	if s.status == nil {
		s.status = make(map[Kind]Status)
	}
	s.status[kind] = st
}

func cloneOrders(items []api.Order) []api.Order {
	dup := make([]api.Order, len(items))
	for i, o := range items {
		dup[i] = o.Clone()
	}
	return dup
}

func cloneMeals(items []api.Meal) []api.Meal {
	dup := make([]api.Meal, len(items))
	for i, m := range items {
		dup[i] = m.Clone()
	}
	return dup
}

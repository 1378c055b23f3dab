// Package mutation applies admin writes optimistically.
//
// Every write updates the entity store before the request is sent, then
// either reconciles the record with the server's canonical copy or puts
// the record back the way it was. Only the record being written is ever
// rolled back; concurrent writes to other records are left alone.
package mutation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/overlay"
	"github.com/frer-max/fassr/internal/state"
)

// Client is the write half of the API client.
type Client interface {
	SaveCategory(ctx context.Context, category api.Category) (api.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	SaveMeal(ctx context.Context, meal api.Meal) (api.Meal, error)
	DeleteMeal(ctx context.Context, id int64) error
	SaveSettings(ctx context.Context, settings api.Settings) (api.Settings, error)
	CreateOrder(ctx context.Context, order api.Order) (api.Order, error)
	UpdateOrder(ctx context.Context, update api.StatusUpdate) (api.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// Refresher forces an authoritative reload of a kind.
type Refresher interface {
	Ensure(ctx context.Context, kind state.Kind, force bool) error
}

// Overlay records and applies device-local completion times.
type Overlay interface {
	RecordCompletion(id int64, at time.Time) (bool, error)
	CompletedAt(id int64) (time.Time, bool)
	Hydrate(order api.Order) api.Order
}

// Engine performs optimistic writes against the store.
type Engine struct {
	client    Client
	store     *state.Store
	overlay   Overlay
	refresher Refresher
	logger    *zap.Logger
	now       func() time.Time
	newKey    func() string
}

// New returns an Engine. A nil ov keeps completion times in memory only.
// refresher may be nil, in which case failed status updates are only
// rolled back.
func New(client Client, store *state.Store, ov Overlay, refresher Refresher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ov == nil {
		ov = overlay.New(nil, logger)
	}
	return &Engine{
		client:    client,
		store:     store,
		overlay:   ov,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
		newKey:    uuid.NewString,
	}
}

func (e *Engine) rolledBack(kind state.Kind, op string, id any, err error) {
	e.logger.Info("write rolled back",
		zap.String("kind", string(kind)),
		zap.String("op", op),
		zap.Any("id", id),
		zap.Error(err),
	)
}

func indexOf[T any](list []T, match func(T) bool) int {
	for i, v := range list {
		if match(v) {
			return i
		}
	}
	return -1
}

func insertAt[T any](list []T, i int, v T) []T {
	if i < 0 || i > len(list) {
		i = len(list)
	}
	list = append(list, v)
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func removeAt[T any](list []T, i int) []T {
	return append(list[:i], list[i+1:]...)
}

// replaceOrInsert swaps the first element matched by any of matchers for v,
// or inserts v at fallback when none matches.
func replaceOrInsert[T any](list []T, v T, fallback int, matchers ...func(T) bool) []T {
	for _, match := range matchers {
		if i := indexOf(list, match); i >= 0 {
			list[i] = v
			return list
		}
	}
	return insertAt(list, fallback, v)
}

func notFound(kind state.Kind, id int64) error {
	return fmt.Errorf("%s %d not in store", kind, id)
}

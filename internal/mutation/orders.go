package mutation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/state"
)

// CreateOrder inserts order at the top of the list under a temporary key,
// submits it and swaps the placeholder for the server's record.
func (e *Engine) CreateOrder(ctx context.Context, order api.Order) (api.Order, error) {
	key := e.newKey()
	placeholder := order.Clone()
	placeholder.ID = 0
	placeholder.ClientKey = key
	if placeholder.Status == "" {
		placeholder.Status = api.StatusNew
	}
	if placeholder.CreatedAt.IsZero() {
		placeholder.CreatedAt = e.now()
	}
	byKey := func(o api.Order) bool { return o.ClientKey == key }

	e.store.UpdateOrders(func(list []api.Order) []api.Order {
		return insertAt(list, 0, placeholder)
	})

	created, err := e.client.CreateOrder(ctx, placeholder)
	if err != nil {
		e.store.UpdateOrders(func(list []api.Order) []api.Order {
			if i := indexOf(list, byKey); i >= 0 {
				return removeAt(list, i)
			}
			return list
		})
		e.rolledBack(state.Orders, "create", key, err)
		return api.Order{}, err
	}

	created = e.hydrate(created)
	created.ClientKey = ""
	e.store.UpdateOrders(func(list []api.Order) []api.Order {
		return replaceOrInsert(list, created, 0, byKey, func(o api.Order) bool { return o.ID == created.ID })
	})
	return created, nil
}

// UpdateStatus moves order id to next. Illegal transitions fail with
// api.ErrInvalidTransition before any request is made. Moving to delivered
// records the completion time in the overlay the first time it happens.
// A rejected update restores the order and forces a reload of the list.
func (e *Engine) UpdateStatus(ctx context.Context, id int64, next api.OrderStatus) (api.Order, error) {
	return e.UpdateOrder(ctx, api.StatusUpdate{ID: id, Status: next})
}

// SetRating stores a customer rating and review on order id.
func (e *Engine) SetRating(ctx context.Context, id int64, rating int, review string) (api.Order, error) {
	return e.UpdateOrder(ctx, api.StatusUpdate{ID: id, Rating: &rating, Review: &review})
}

// MarkRatingSeen flags the rating of order id as acknowledged.
func (e *Engine) MarkRatingSeen(ctx context.Context, id int64) (api.Order, error) {
	seen := true
	return e.UpdateOrder(ctx, api.StatusUpdate{ID: id, RatingSeen: &seen})
}

// UpdateOrder applies a partial order update optimistically.
func (e *Engine) UpdateOrder(ctx context.Context, update api.StatusUpdate) (api.Order, error) {
	if update.ID <= 0 {
		return api.Order{}, notFound(state.Orders, update.ID)
	}
	byID := func(o api.Order) bool { return o.ID == update.ID }

	current := e.store.Orders()
	i := indexOf(current, byID)
	if i < 0 {
		return api.Order{}, notFound(state.Orders, update.ID)
	}
	if update.Status != "" && !current[i].Status.CanTransition(update.Status) {
		return api.Order{}, fmt.Errorf("order %d %s -> %s: %w", update.ID, current[i].Status, update.Status, api.ErrInvalidTransition)
	}

	if update.Status == api.StatusDelivered {
		if _, err := e.overlay.RecordCompletion(update.ID, e.now()); err != nil {
			e.logger.Warn("record completion failed", zap.Int64("order_id", update.ID), zap.Error(err))
		}
	}

	var (
		pre   api.Order
		found bool
	)
	e.store.UpdateOrders(func(list []api.Order) []api.Order {
		i := indexOf(list, byID)
		if i < 0 {
			return list
		}
		pre, found = list[i].Clone(), true
		list[i] = e.apply(list[i], update)
		return list
	})
	if !found {
		return api.Order{}, notFound(state.Orders, update.ID)
	}

	updated, err := e.client.UpdateOrder(ctx, update)
	if err != nil {
		e.store.UpdateOrders(func(list []api.Order) []api.Order {
			if i := indexOf(list, byID); i >= 0 {
				list[i] = pre
			}
			return list
		})
		e.rolledBack(state.Orders, "update", update.ID, err)
		if update.Status != "" && e.refresher != nil {
			if rerr := e.refresher.Ensure(ctx, state.Orders, true); rerr != nil {
				e.logger.Warn("refetch after failed status update", zap.Error(rerr))
			}
		}
		return api.Order{}, err
	}

	updated = e.hydrate(updated)
	e.store.UpdateOrders(func(list []api.Order) []api.Order {
		if i := indexOf(list, byID); i >= 0 {
			list[i] = updated
		}
		return list
	})
	return updated, nil
}

// DeleteOrder removes order id and puts it back at the same position if
// the server refuses.
func (e *Engine) DeleteOrder(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound(state.Orders, id)
	}
	byID := func(o api.Order) bool { return o.ID == id }

	var (
		pre api.Order
		at  = -1
	)
	e.store.UpdateOrders(func(list []api.Order) []api.Order {
		if at = indexOf(list, byID); at >= 0 {
			pre = list[at]
			return removeAt(list, at)
		}
		return list
	})
	if at < 0 {
		return notFound(state.Orders, id)
	}

	if err := e.client.DeleteOrder(ctx, id); err != nil {
		e.store.UpdateOrders(func(list []api.Order) []api.Order {
			if indexOf(list, byID) >= 0 {
				return list
			}
			return insertAt(list, at, pre)
		})
		e.rolledBack(state.Orders, "delete", id, err)
		return err
	}
	return nil
}

// apply returns o with update applied, stamping a completion time when the
// order becomes delivered.
func (e *Engine) apply(o api.Order, update api.StatusUpdate) api.Order {
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
	if o.Status == api.StatusDelivered && o.CompletedAt == nil {
		at, ok := e.overlay.CompletedAt(o.ID)
		if !ok {
			at = e.now()
		}
		o.CompletedAt = &at
	}
	return o
}

func (e *Engine) hydrate(o api.Order) api.Order {
	return e.overlay.Hydrate(o)
}

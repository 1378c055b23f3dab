package state

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/kv"
)

func TestStore_ReadsAreCopies(t *testing.T) {
	var s Store

	s.SetOrders([]api.Order{{ID: 1, Items: []api.OrderItem{{Name: "Tacos"}}}, {ID: 2}})
	before := time.Now()
	s.SetCategories([]api.Category{{ID: 1, Name: "Pizza"}})

	orders := s.Orders()
	orders[0].ID = 999
	orders[0].Items[0].Name = "changed"
	again := s.Orders()
	if again[0].ID != 1 || again[0].Items[0].Name != "Tacos" {
		t.Fatalf("Orders should return a deep copy; got %#v", again[0])
	}

	cats := s.Categories()
	cats[0].Name = "changed"
	if s.Categories()[0].Name != "Pizza" {
		t.Fatalf("Categories should return a copy")
	}
	if st := s.Status(Categories); st.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", st.LastUpdated, before)
	}
}

func TestStore_DefaultsBeforeLoad(t *testing.T) {
	var s Store

	if got := s.Orders(); len(got) != 0 {
		t.Fatalf("Orders = %#v, want empty", got)
	}
	if s.Settings().IsOpen != nil {
		t.Fatalf("IsOpen should be unknown before load")
	}
	for _, k := range Kinds {
		if s.Loaded(k) {
			t.Fatalf("%s loaded on a fresh store", k)
		}
	}
}

func TestStore_FailureKeepsDataAndCountsFailures(t *testing.T) {
	var s Store

	s.SetOrders([]api.Order{{ID: 1}})
	s.MarkLoaded(Orders)
	if st := s.Status(Orders); !st.Loaded || st.IsOffline() {
		t.Fatalf("status after load = %#v", st)
	}

	origErr := errors.New("boom")
	s.MarkFailed(Orders, origErr)
	st := s.Status(Orders)
	if st.Loaded {
		t.Fatalf("Loaded = true after failure")
	}
	if got := s.Orders(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("orders changed on failure: %#v", got)
	}
	if st.LastError == nil || st.LastError.Error() != "boom" || !errors.Is(st.LastError, origErr) {
		t.Fatalf("LastError = %v, want boom", st.LastError)
	}
	if reflect.ValueOf(st.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Status should wrap the error instance")
	}
	if st.IsOffline() {
		t.Fatalf("IsOffline() = true after a single failure")
	}

	s.MarkFailed(Orders, origErr)
	if st := s.Status(Orders); st.ConsecutiveFailures != 2 || !st.IsOffline() {
		t.Fatalf("status after two failures = %#v, want offline", st)
	}

	s.MarkLoaded(Orders)
	if st := s.Status(Orders); st.ConsecutiveFailures != 0 || st.LastError != nil {
		t.Fatalf("success should reset failures: %#v", st)
	}
}

func TestStore_SetSettingsMergesFields(t *testing.T) {
	var s Store

	s.SetSettings(api.Settings{RestaurantName: api.Ptr("Chez"), IsOpen: api.Ptr(true)})
	merged := s.SetSettings(api.Settings{IsOpen: api.Ptr(false)})

	if merged.RestaurantName == nil || *merged.RestaurantName != "Chez" {
		t.Fatalf("partial write erased restaurant name: %#v", merged)
	}
	if got := s.Settings(); got.IsOpen == nil || *got.IsOpen {
		t.Fatalf("IsOpen = %v, want false", got.IsOpen)
	}

	s.UpdateSettings(func(api.Settings) api.Settings { return api.Settings{} })
	if s.Settings().RestaurantName != nil {
		t.Fatalf("UpdateSettings should overwrite without merging")
	}
}

func TestStore_UpdateOrdersIsAtomic(t *testing.T) {
	var s Store
	s.SetOrders([]api.Order{{ID: 1, Subtotal: 0}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateOrders(func(list []api.Order) []api.Order {
				list[0].Subtotal++
				return list
			})
		}()
	}
	wg.Wait()

	if got := s.Orders()[0].Subtotal; got != 50 {
		t.Fatalf("Subtotal = %v, want 50 (lost update)", got)
	}
}

func TestStore_OrderPageKeepsCursor(t *testing.T) {
	var s Store
	s.SetOrderPage([]api.Order{{ID: 1}}, api.NewPagination(45, 1, 20))
	s.SetOrders([]api.Order{{ID: 2}})

	if c := s.Cursor(); c.Total != 45 || c.TotalPages != 3 {
		t.Fatalf("cursor = %#v, want preserved", c)
	}
}

func TestStore_SubscribeCoalescesAndFilters(t *testing.T) {
	var s Store

	orders, cancel := s.Subscribe(Orders)
	defer cancel()
	all, cancelAll := s.Subscribe()
	defer cancelAll()

	s.SetCategories(nil)
	select {
	case <-orders:
		t.Fatalf("orders subscriber notified for categories write")
	default:
	}

	for i := 0; i < 10; i++ {
		s.SetOrders([]api.Order{{ID: int64(i)}})
	}
	select {
	case <-orders:
	default:
		t.Fatalf("orders subscriber not notified")
	}
	select {
	case <-orders:
		t.Fatalf("notifications should coalesce into one signal")
	default:
	}
	select {
	case <-all:
	default:
		t.Fatalf("catch-all subscriber not notified")
	}

	cancel()
	s.SetOrders(nil)
	select {
	case <-orders:
		t.Fatalf("cancelled subscriber still notified")
	default:
	}
}

func TestStore_RestoreFromMirror(t *testing.T) {
	cache := &kv.Memory{}

	first := New(cache, nil)
	first.SetOrderPage([]api.Order{{ID: 7, Status: api.StatusReady}}, api.NewPagination(1, 1, 20))
	first.SetSettings(api.Settings{IsOpen: api.Ptr(true)})
	first.SetMeals([]api.Meal{{ID: 3, Name: "Soup"}})

	second := New(cache, nil)
	if err := second.Restore(); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if got := second.Orders(); len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("restored orders = %#v", got)
	}
	if second.Cursor().Total != 1 {
		t.Fatalf("restored cursor = %#v", second.Cursor())
	}
	if got := second.Settings(); got.IsOpen == nil || !*got.IsOpen {
		t.Fatalf("restored settings = %#v", got)
	}
	st := second.Status(Orders)
	if !st.Restored || st.Loaded {
		t.Fatalf("restored status = %#v, want restored and not loaded", st)
	}
	if second.Status(Categories).Restored {
		t.Fatalf("categories were never cached")
	}
}

func TestStore_RestoreReportsCorruptEntries(t *testing.T) {
	cache := &kv.Memory{}
	_ = cache.Set("cache/orders", "{broken")
	_ = cache.Set("cache/categories", `[{"id":1,"name":"Pizza"}]`)

	s := New(cache, nil)
	if err := s.Restore(); err == nil {
		t.Fatalf("Restore should report the corrupt orders entry")
	}
	if got := s.Categories(); len(got) != 1 {
		t.Fatalf("valid entries should still restore; got %#v", got)
	}
}

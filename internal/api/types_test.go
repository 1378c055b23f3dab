package api

import (
	"encoding/json"
	"testing"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusNew, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusDelivered, true},
		{StatusPreparing, StatusNew, true},
		{StatusReady, StatusPreparing, true},
		{StatusDelivered, StatusReady, true},
		{StatusNew, StatusCancelled, true},
		{StatusReady, StatusCancelled, true},
		{StatusNew, StatusReady, false},
		{StatusNew, StatusNew, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusNew, false},
		{StatusDelivered, StatusPreparing, false},
		{"bogus", StatusNew, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderStatus_NextAndPrevious(t *testing.T) {
	if next, ok := StatusReady.Next(); !ok || next != StatusDelivered {
		t.Fatalf("ready.Next() = %q,%v", next, ok)
	}
	if _, ok := StatusDelivered.Next(); ok {
		t.Fatalf("delivered.Next() should not exist")
	}
	if prev, ok := StatusDelivered.Previous(); !ok || prev != StatusReady {
		t.Fatalf("delivered.Previous() = %q,%v", prev, ok)
	}
	if _, ok := StatusNew.Previous(); ok {
		t.Fatalf("new.Previous() should not exist")
	}
	if _, ok := StatusCancelled.Previous(); ok {
		t.Fatalf("cancelled.Previous() should not exist")
	}
}

func TestLocation_DecodesStringEncodedObject(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(`{"id":1,"location":"{\"lat\":36.7,\"lng\":3.05}"}`), &o); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(o.Location) != `{"lat":36.7,"lng":3.05}` {
		t.Fatalf("Location = %s, want inner object", o.Location)
	}

	if err := json.Unmarshal([]byte(`{"id":1,"location":"near the mosque"}`), &o); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(o.Location) != `"near the mosque"` {
		t.Fatalf("Location = %s, want plain string kept", o.Location)
	}

	out, err := json.Marshal(Order{ID: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[string]any
	_ = json.Unmarshal(out, &back)
	if _, ok := back["location"]; ok {
		t.Fatalf("empty location should be omitted: %s", out)
	}
}

func TestSettings_MergeIsShallowAndFieldLevel(t *testing.T) {
	prior := Settings{
		RestaurantName: Ptr("Chez Amel"),
		IsOpen:         Ptr(true),
		Delivery:       &Delivery{Enabled: Ptr(true), FixedCost: Ptr(200.0)},
	}
	merged := prior.Merge(Settings{IsOpen: Ptr(false), Delivery: &Delivery{Enabled: Ptr(false)}})

	if merged.RestaurantName == nil || *merged.RestaurantName != "Chez Amel" {
		t.Fatalf("RestaurantName erased by partial write: %#v", merged.RestaurantName)
	}
	if merged.IsOpen == nil || *merged.IsOpen {
		t.Fatalf("IsOpen = %v, want false", merged.IsOpen)
	}
	if merged.Delivery.FixedCost != nil {
		t.Fatalf("delivery block should be replaced whole, got fixedCost %v", *merged.Delivery.FixedCost)
	}

	*merged.IsOpen = true
	if *prior.IsOpen != true || merged.IsOpen == prior.IsOpen {
		t.Fatalf("Merge must not alias prior pointers")
	}
}

func TestOrder_CloneIsDeep(t *testing.T) {
	rating := 4
	o := Order{ID: 1, Items: []OrderItem{{Name: "a"}}, Rating: &rating}
	dup := o.Clone()
	dup.Items[0].Name = "b"
	*dup.Rating = 1
	if o.Items[0].Name != "a" || *o.Rating != 4 {
		t.Fatalf("Clone shares state with original: %#v", o)
	}
}

func TestSettingsRevert_OnlyTouchesUpdatedFields(t *testing.T) {
	prior := Settings{Phone: Ptr("000")}
	current := Settings{Phone: Ptr("0550"), RestaurantName: Ptr("New"), IsOpen: Ptr(true)}
	update := Settings{Phone: Ptr("0550"), IsOpen: Ptr(true)}

	got := current.Revert(prior, update)
	if got.Phone == nil || *got.Phone != "000" {
		t.Fatalf("phone = %v, want prior value", got.Phone)
	}
	if got.IsOpen != nil {
		t.Fatalf("isOpen = %v, want unset as before", *got.IsOpen)
	}
	if got.RestaurantName == nil || *got.RestaurantName != "New" {
		t.Fatalf("untouched field changed: %v", got.RestaurantName)
	}
}
